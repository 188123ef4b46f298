package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ProfilesCollection is the fixed collection (table) name holding one profile per account.
const ProfilesCollection = "users"

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidFitnessLevel = errors.New("invalid fitness level")
)

// FitnessLevel 表示用户自评的健身水平。
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "Beginner"
	FitnessIntermediate FitnessLevel = "Intermediate"
	FitnessAdvanced     FitnessLevel = "Advanced"
)

// FitnessLevels lists the selectable levels in display order.
var FitnessLevels = []FitnessLevel{FitnessBeginner, FitnessIntermediate, FitnessAdvanced}

// Valid reports whether l is one of the three known levels.
func (l FitnessLevel) Valid() bool {
	switch l {
	case FitnessBeginner, FitnessIntermediate, FitnessAdvanced:
		return true
	}
	return false
}

// ParseFitnessLevel matches s case-insensitively against the known levels.
func ParseFitnessLevel(s string) (FitnessLevel, error) {
	s = strings.TrimSpace(s)
	for _, l := range FitnessLevels {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFitnessLevel, s)
}

// Profile 是每个账号对应的一份资料文档。
// Name 为空表示资料尚未完成设置。
type Profile struct {
	BaseModel
	Email            string                      `gorm:"type:varchar(255);index" json:"email"`
	Name             string                      `gorm:"type:varchar(100)" json:"name"`
	FitnessLevel     FitnessLevel                `gorm:"type:varchar(20)" json:"fitnessLevel"`
	WorkoutTypes     datatypes.JSONSlice[string] `json:"workoutTypes"`
	Bio              string                      `gorm:"type:text" json:"bio"`
	AvatarIndex      int                         `json:"avatarIndex"`
	SentRequests     datatypes.JSONSlice[string] `json:"sentRequests"`
	ReceivedRequests datatypes.JSONSlice[string] `json:"receivedRequests"`
	Buddies          datatypes.JSONSlice[string] `json:"buddies"`
}

// TableName 指定 Profile 模型的表名。
func (Profile) TableName() string {
	return ProfilesCollection
}

// NewProfile builds the minimal profile written at signup: empty name,
// Beginner level and no workout types, so the setup flow is forced.
func NewProfile(id, email string, avatarIndex int, now time.Time) *Profile {
	p := &Profile{
		BaseModel:    BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Email:        email,
		FitnessLevel: FitnessBeginner,
		AvatarIndex:  avatarIndex,
	}
	p.Normalize()
	return p
}

// IsComplete reports whether the profile setup has been done.
func (p *Profile) IsComplete() bool {
	return p != nil && p.Name != ""
}

// Avatar resolves the profile's avatar, falling back to the first one.
func (p *Profile) Avatar() Avatar {
	return AvatarByIndex(p.AvatarIndex)
}

// Normalize brings the stored fields into their canonical form: trimmed text,
// clamped avatar, de-duplicated workout types and non-nil sets.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Bio = strings.TrimSpace(p.Bio)
	p.AvatarIndex = AvatarByIndex(p.AvatarIndex).Index
	p.WorkoutTypes = NormalizeWorkoutTypes(p.WorkoutTypes)
	p.SentRequests = nonNil(p.SentRequests)
	p.ReceivedRequests = nonNil(p.ReceivedRequests)
	p.Buddies = nonNil(p.Buddies)
}

// Validate checks the schema rules enforced at the store boundary.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if p.FitnessLevel != "" && !p.FitnessLevel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFitnessLevel, p.FitnessLevel)
	}
	return nil
}

// Clone returns a deep copy, so callers can mutate it without touching shared state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.WorkoutTypes = append(datatypes.JSONSlice[string]{}, p.WorkoutTypes...)
	c.SentRequests = append(datatypes.JSONSlice[string]{}, p.SentRequests...)
	c.ReceivedRequests = append(datatypes.JSONSlice[string]{}, p.ReceivedRequests...)
	c.Buddies = append(datatypes.JSONSlice[string]{}, p.Buddies...)
	return &c
}

// NormalizeWorkoutTypes trims entries, drops empty ones and keeps the first
// occurrence of each value.
func NormalizeWorkoutTypes(types []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" || InSet(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func nonNil(s datatypes.JSONSlice[string]) datatypes.JSONSlice[string] {
	if s == nil {
		return datatypes.JSONSlice[string]{}
	}
	return s
}
