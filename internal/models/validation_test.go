package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFormValidate(t *testing.T) {
	tests := []struct {
		name string
		form ProfileForm
		want error
	}{
		{"ok", ProfileForm{Name: "Alice", FitnessLevel: "Beginner"}, nil},
		{"blank name", ProfileForm{Name: "   ", FitnessLevel: "Beginner"}, ErrNameRequired},
		{"missing level", ProfileForm{Name: "Alice"}, ErrFitnessLevelRequired},
		{"unknown level", ProfileForm{Name: "Alice", FitnessLevel: "Elite"}, ErrFitnessLevelRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProfileFormMessages(t *testing.T) {
	assert.EqualError(t, ErrNameRequired, "Please enter your name")
	assert.EqualError(t, ErrFitnessLevelRequired, "Please select your fitness level")
}

func TestProfileFormPatch(t *testing.T) {
	patch, err := ProfileForm{
		Name:         "  Alice ",
		FitnessLevel: "advanced",
		WorkoutTypes: []string{"yoga", " Yoga", "Climbing", ""},
		Bio:          " lifts ",
	}.Patch()
	require.NoError(t, err)

	assert.Equal(t, "Alice", *patch.Name)
	assert.Equal(t, FitnessAdvanced, *patch.FitnessLevel)
	assert.Equal(t, []string{"Yoga", "Climbing"}, patch.WorkoutTypes)
	assert.Equal(t, "lifts", *patch.Bio)
	assert.Nil(t, patch.AvatarIndex)
}

func TestFormFromProfile(t *testing.T) {
	p := &Profile{Name: "Alice", FitnessLevel: FitnessAdvanced, WorkoutTypes: []string{"HIIT"}, Bio: "b"}
	f := FormFromProfile(p)
	assert.Equal(t, ProfileForm{Name: "Alice", FitnessLevel: "Advanced", WorkoutTypes: []string{"HIIT"}, Bio: "b"}, f)
	assert.Equal(t, ProfileForm{}, FormFromProfile(nil))
}
