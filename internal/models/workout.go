package models

import (
	"strings"
	"time"
)

// WorkoutTypes is the catalog offered on the profile setup and edit screens.
var WorkoutTypes = []string{
	"Weightlifting", "Cardio", "Yoga", "CrossFit", "Running",
	"Cycling", "Swimming", "HIIT", "Pilates", "Calisthenics",
}

// MatchWorkoutType resolves s against the catalog, ignoring case.
// Unknown values are returned trimmed as-is; the catalog is a suggestion, not a constraint.
func MatchWorkoutType(s string) string {
	s = strings.TrimSpace(s)
	for _, t := range WorkoutTypes {
		if strings.EqualFold(t, s) {
			return t
		}
	}
	return s
}

// Workout 是训练页面展示的一条训练计划（目前只有本地示例数据）。
type Workout struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration"`
	Type      string        `json:"type"`
	Completed bool          `json:"completed"`
}

// RecentWorkout is a history entry shown on the home screen.
type RecentWorkout struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

// SampleWorkouts returns a fresh copy of the mock workout plan.
func SampleWorkouts() []Workout {
	return []Workout{
		{ID: "1", Name: "Morning Cardio", Duration: 30 * time.Minute, Type: "Cardio"},
		{ID: "2", Name: "Chest & Triceps", Duration: 45 * time.Minute, Type: "Strength"},
		{ID: "3", Name: "Leg Day", Duration: 50 * time.Minute, Type: "Strength", Completed: true},
	}
}

// SampleRecentWorkouts returns the mock history shown on the home screen.
func SampleRecentWorkouts() []RecentWorkout {
	return []RecentWorkout{
		{ID: "1", Name: "Chest & Triceps", Date: "2023-05-14"},
		{ID: "2", Name: "Leg Day", Date: "2023-05-12"},
	}
}
