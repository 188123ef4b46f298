package screens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gym-buddy/internal/models"
	"gym-buddy/internal/navigation"
)

var errEditCancelled = errors.New("edit cancelled")

// readForm prompts for every profile field. In edit mode a blank answer keeps
// the current value, "-" clears the workout types or the bio, and "back"
// cancels the edit.
func (s *Shell) readForm(current models.ProfileForm, edit bool) (models.ProfileForm, error) {
	form := current

	ask := func(label, cur string) (string, error) {
		prompt := label + ": "
		if edit && cur != "" {
			prompt = fmt.Sprintf("%s [%s]: ", label, cur)
		}
		line, ok := s.readLine(prompt)
		if !ok {
			return "", io.EOF
		}
		if edit && line == "" {
			return cur, nil
		}
		if edit && strings.EqualFold(line, "back") {
			return "", errEditCancelled
		}
		return line, nil
	}

	var err error
	if form.Name, err = ask("Name", current.Name); err != nil {
		return form, err
	}

	levels := make([]string, len(models.FitnessLevels))
	for i, l := range models.FitnessLevels {
		levels[i] = fmt.Sprintf("%d=%s", i+1, l)
	}
	level, err := ask("Fitness level ("+strings.Join(levels, ", ")+")", current.FitnessLevel)
	if err != nil {
		return form, err
	}
	if n, convErr := strconv.Atoi(level); convErr == nil && n >= 1 && n <= len(models.FitnessLevels) {
		level = string(models.FitnessLevels[n-1])
	}
	form.FitnessLevel = level

	s.printf("Workout types: %s\n", strings.Join(models.WorkoutTypes, ", "))
	types, err := ask("Your workout types (comma separated)", strings.Join(current.WorkoutTypes, ", "))
	if err != nil {
		return form, err
	}
	form.WorkoutTypes = nil
	if types != "-" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				form.WorkoutTypes = append(form.WorkoutTypes, t)
			}
		}
	}

	if form.Bio, err = ask("Bio", current.Bio); err != nil {
		return form, err
	}
	if edit && form.Bio == "-" {
		form.Bio = ""
	}
	return form, nil
}

// profileSetup runs the forced setup flow until the profile is complete.
func (s *Shell) profileSetup(ctx context.Context) error {
	s.println("Tell us about yourself so we can find you a buddy.")
	form, err := s.readForm(models.ProfileForm{}, false)
	if err != nil {
		return err
	}
	patch, err := form.Patch()
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil
	}
	if _, err := s.store.UpdateProfile(ctx, patch); err != nil {
		s.showError("Error", err)
		return nil
	}
	return s.waitUntil(ctx, func(st navigation.State) bool { return st != navigation.ProfileIncomplete })
}

// editProfile runs the edit form and returns to the previous screen once the
// profile is saved or the edit is cancelled. Invalid input asks again.
func (s *Shell) editProfile(ctx context.Context) error {
	form, err := s.readForm(models.FormFromProfile(s.store.Snapshot().Profile), true)
	if errors.Is(err, errEditCancelled) {
		s.println("Edit cancelled.")
		return s.leaveEdit()
	}
	if err != nil {
		return err
	}
	patch, err := form.Patch()
	if err != nil {
		s.printf("Error: %v\n", err)
		s.println("Type 'back' at any prompt to cancel.")
		return nil
	}
	if _, err := s.store.UpdateProfile(ctx, patch); err != nil {
		s.showError("Failed to update profile", err)
		s.println("Type 'back' at any prompt to cancel.")
		return nil
	}
	s.println("Profile updated successfully!")
	return s.leaveEdit()
}

func (s *Shell) leaveEdit() error {
	if err := s.router.Back(); err != nil {
		return err
	}
	s.rendered = navigation.Route{}
	return nil
}
