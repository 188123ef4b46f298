package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileIsMinimal(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := NewProfile("u1", "a@x.com", 3, now)

	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, "", p.Name)
	assert.Equal(t, FitnessBeginner, p.FitnessLevel)
	assert.Empty(t, p.WorkoutTypes)
	assert.NotNil(t, p.WorkoutTypes)
	assert.Equal(t, 3, p.AvatarIndex)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
	assert.False(t, p.IsComplete())
}

func TestProfileJSONShape(t *testing.T) {
	p := NewProfile("u1", "a@x.com", 0, time.Unix(0, 0).UTC())

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"id", "email", "name", "fitnessLevel", "workoutTypes", "bio", "avatarIndex", "sentRequests", "receivedRequests", "buddies", "createdAt", "updatedAt"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, []any{}, fields["workoutTypes"])
}

func TestNormalize(t *testing.T) {
	p := &Profile{
		Name:         "  Alice ",
		Bio:          " hi ",
		AvatarIndex:  42,
		WorkoutTypes: []string{" Yoga", "", "Yoga", "Cardio "},
	}
	p.Normalize()

	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, 0, p.AvatarIndex)
	assert.Equal(t, []string{"Yoga", "Cardio"}, []string(p.WorkoutTypes))
	assert.NotNil(t, p.Buddies)
}

func TestPatchApply(t *testing.T) {
	base := NewProfile("u1", "a@x.com", 2, time.Unix(0, 0).UTC())
	base.Bio = "old"
	base.Buddies = []string{"u2"}

	now := time.Unix(100, 0).UTC()
	merged := ProfilePatch{
		Name:         StringPtr("Alice"),
		FitnessLevel: LevelPtr(FitnessIntermediate),
	}.Merge(base, now)

	assert.Equal(t, "Alice", merged.Name)
	assert.Equal(t, FitnessIntermediate, merged.FitnessLevel)
	assert.Equal(t, "old", merged.Bio)
	assert.Equal(t, 2, merged.AvatarIndex)
	assert.Equal(t, []string{"u2"}, []string(merged.Buddies))
	assert.Equal(t, now, merged.UpdatedAt)

	// the original is untouched
	assert.Equal(t, "", base.Name)
}

func TestPatchClearsWorkoutTypes(t *testing.T) {
	p := &Profile{WorkoutTypes: []string{"Yoga"}}
	ProfilePatch{WorkoutTypes: []string{}}.Apply(p)
	assert.Empty(t, p.WorkoutTypes)

	p.WorkoutTypes = []string{"Yoga"}
	ProfilePatch{}.Apply(p)
	assert.Equal(t, []string{"Yoga"}, []string(p.WorkoutTypes))
}

func TestPatchJSONRoundTripKeepsNullSemantics(t *testing.T) {
	var patch ProfilePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bob"}`), &patch))
	assert.Nil(t, patch.WorkoutTypes)
	assert.False(t, patch.IsEmpty())

	require.NoError(t, json.Unmarshal([]byte(`{"workoutTypes":[]}`), &patch))
	assert.NotNil(t, patch.WorkoutTypes)
}

func TestPatchValidate(t *testing.T) {
	assert.NoError(t, ProfilePatch{FitnessLevel: LevelPtr(FitnessAdvanced)}.Validate())
	assert.ErrorIs(t, ProfilePatch{FitnessLevel: LevelPtr("Expert")}.Validate(), ErrInvalidFitnessLevel)
}

func TestParseFitnessLevel(t *testing.T) {
	l, err := ParseFitnessLevel(" intermediate ")
	require.NoError(t, err)
	assert.Equal(t, FitnessIntermediate, l)

	_, err = ParseFitnessLevel("pro")
	assert.ErrorIs(t, err, ErrInvalidFitnessLevel)
}

func TestAvatarByIndexClamps(t *testing.T) {
	first := AvatarByIndex(0)
	for _, i := range []int{-1, 6, 7, 1000} {
		assert.Equal(t, first, AvatarByIndex(i), "index %d", i)
	}
	assert.Equal(t, 5, AvatarByIndex(5).Index)
	assert.Len(t, Avatars, 6)
}

func TestRandomAvatarIndexInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		idx := RandomAvatarIndex()
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, len(Avatars))
	}
}

func TestSampleWorkoutsAreFresh(t *testing.T) {
	a := SampleWorkouts()
	a[0].Completed = true
	assert.False(t, SampleWorkouts()[0].Completed)
}
