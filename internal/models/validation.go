package models

import (
	"errors"
	"strings"
)

var (
	ErrNameRequired         = errors.New("Please enter your name")
	ErrFitnessLevelRequired = errors.New("Please select your fitness level")
)

// ProfileForm holds the raw input of the profile setup and edit screens.
type ProfileForm struct {
	Name         string
	FitnessLevel string
	WorkoutTypes []string
	Bio          string
}

// Validate enforces the rules checked before any profile write:
// a non-blank name and a fitness level from the fixed enum.
func (f ProfileForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(f.FitnessLevel) == "" {
		return ErrFitnessLevelRequired
	}
	if _, err := ParseFitnessLevel(f.FitnessLevel); err != nil {
		return ErrFitnessLevelRequired
	}
	return nil
}

// Patch validates the form and converts it into a trimmed ProfilePatch.
func (f ProfileForm) Patch() (ProfilePatch, error) {
	if err := f.Validate(); err != nil {
		return ProfilePatch{}, err
	}
	level, _ := ParseFitnessLevel(f.FitnessLevel)
	types := make([]string, 0, len(f.WorkoutTypes))
	for _, t := range f.WorkoutTypes {
		types = append(types, MatchWorkoutType(t))
	}
	return ProfilePatch{
		Name:         StringPtr(strings.TrimSpace(f.Name)),
		FitnessLevel: LevelPtr(level),
		WorkoutTypes: NormalizeWorkoutTypes(types),
		Bio:          StringPtr(strings.TrimSpace(f.Bio)),
	}, nil
}

// FormFromProfile pre-fills the edit form with the stored values.
func FormFromProfile(p *Profile) ProfileForm {
	if p == nil {
		return ProfileForm{}
	}
	return ProfileForm{
		Name:         p.Name,
		FitnessLevel: string(p.FitnessLevel),
		WorkoutTypes: append([]string(nil), p.WorkoutTypes...),
		Bio:          p.Bio,
	}
}
