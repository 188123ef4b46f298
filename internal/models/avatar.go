package models

import (
	"fmt"
	"math/rand"
)

// Avatar is one entry of the fixed, locally bundled avatar set.
type Avatar struct {
	Index int    `json:"avatarIndex"`
	Asset string `json:"asset"`
}

// Avatars is the fixed avatar set shipped with the app.
var Avatars = func() []Avatar {
	out := make([]Avatar, 6)
	for i := range out {
		out[i] = Avatar{Index: i, Asset: fmt.Sprintf("avatars/avatar%d.png", i+1)}
	}
	return out
}()

// AvatarByIndex returns the avatar at index, or the first one when index is out of range.
func AvatarByIndex(index int) Avatar {
	if index < 0 || index >= len(Avatars) {
		index = 0
	}
	return Avatars[index]
}

// RandomAvatarIndex picks an index uniformly over the avatar set.
func RandomAvatarIndex() int {
	return rand.Intn(len(Avatars))
}
