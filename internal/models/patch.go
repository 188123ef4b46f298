package models

import "time"

// ProfilePatch 是资料的部分更新。nil 字段表示不修改。
// 关系集合不在其中，只能通过好友请求操作修改。
type ProfilePatch struct {
	Name         *string       `json:"name,omitempty"`
	FitnessLevel *FitnessLevel `json:"fitnessLevel,omitempty"`
	WorkoutTypes []string      `json:"workoutTypes"` // null 不修改，[] 清空
	Bio          *string       `json:"bio,omitempty"`
	AvatarIndex  *int          `json:"avatarIndex,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.FitnessLevel == nil && p.WorkoutTypes == nil && p.Bio == nil && p.AvatarIndex == nil
}

// Validate rejects values that can never be stored.
func (p ProfilePatch) Validate() error {
	if p.FitnessLevel != nil && !p.FitnessLevel.Valid() {
		return ErrInvalidFitnessLevel
	}
	return nil
}

// Apply merges the patch over dst. A non-nil, empty WorkoutTypes clears the set.
func (p ProfilePatch) Apply(dst *Profile) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.FitnessLevel != nil {
		dst.FitnessLevel = *p.FitnessLevel
	}
	if p.WorkoutTypes != nil {
		dst.WorkoutTypes = p.WorkoutTypes
	}
	if p.Bio != nil {
		dst.Bio = *p.Bio
	}
	if p.AvatarIndex != nil {
		dst.AvatarIndex = *p.AvatarIndex
	}
	dst.Normalize()
}

// Merge returns a copy of current with the patch applied and UpdatedAt set to now.
func (p ProfilePatch) Merge(current *Profile, now time.Time) *Profile {
	merged := current.Clone()
	p.Apply(merged)
	merged.UpdatedAt = now
	return merged
}

// String and level helpers for building patches.

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func LevelPtr(l FitnessLevel) *FitnessLevel { return &l }
