package screens

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gym-buddy/internal/models"
	"gym-buddy/internal/navigation"
)

func (s *Shell) renderHome() {
	name := ""
	if p := s.store.Snapshot().Profile; p != nil {
		name = p.Name
	}
	s.printf("Welcome Back, %s!\n", name)
	s.println("Your fitness journey starts here")

	s.println("\nToday's Workout")
	today := ""
	for _, w := range s.workouts {
		if !w.Completed {
			today = fmt.Sprintf("%s (%d min)", w.Name, int(w.Duration.Minutes()))
			break
		}
	}
	if today == "" {
		today = "No workout scheduled for today"
	}
	s.println("  " + today)

	s.println("\nRecent Workouts")
	for _, w := range models.SampleRecentWorkouts() {
		s.printf("  %-20s %s\n", w.Name, w.Date)
	}
}

func badge(status models.RelationshipStatus) string {
	switch status {
	case models.RelationshipAccepted:
		return "Buddies"
	case models.RelationshipPending:
		return "Pending"
	}
	return "Connect"
}

func (s *Shell) renderFindBuddy(ctx context.Context) {
	all, err := s.dir.List(ctx)
	if err != nil {
		log.Printf("加载用户列表失败: %v", err)
		s.showError("Failed to load users", err)
		s.candidates = nil
		return
	}
	s.candidates = models.FilterCandidates(s.store.Snapshot().Profile, all, s.query)

	if s.query != "" {
		s.printf("Search: %q\n", s.query)
	}
	if len(s.candidates) == 0 {
		s.println("No buddies found")
		return
	}
	for i, c := range s.candidates {
		s.printf("%2d. %-20s %-12s %-30s [%s]\n", i+1, c.Profile.Name, c.Profile.FitnessLevel,
			strings.Join(c.Profile.WorkoutTypes, ", "), badge(c.Status))
	}
}

func (s *Shell) findBuddyCommand(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "search":
		s.query = strings.Join(args, " ")
		s.renderFindBuddy(ctx)
	case "request":
		i, ok := index(args, len(s.candidates))
		if !ok {
			s.println("Usage: request <n>")
			return true
		}
		s.sendRequest(ctx, s.candidates[i].Profile, s.candidates[i].Status)
		s.renderFindBuddy(ctx)
	case "view":
		i, ok := index(args, len(s.candidates))
		if !ok {
			s.println("Usage: view <n>")
			return true
		}
		if err := s.router.Push(navigation.Route{Screen: navigation.ScreenBuddyProfile, Param: s.candidates[i].Profile.ID}); err != nil {
			s.println(err.Error())
		}
	default:
		return false
	}
	return true
}

// sendRequest sends a request unless a relationship already exists, then
// re-reads the own profile so the badges reflect the new pending state.
func (s *Shell) sendRequest(ctx context.Context, to models.Profile, status models.RelationshipStatus) {
	if status != models.RelationshipNone {
		s.printf("You already have a %s relationship with %s.\n", status, to.Name)
		return
	}
	if err := s.buddies.SendRequest(ctx, to.ID); err != nil {
		log.Printf("发送好友请求失败: %v", err)
		s.showError("Failed to send buddy request", err)
		return
	}
	s.printf("Buddy request sent to %s!\n", to.Name)
	if err := s.store.RefreshProfile(ctx); err != nil {
		s.showError("Failed to refresh profile", err)
	}
}

func (s *Shell) renderWorkouts() {
	if s.showHistory {
		s.println("Upcoming | [History]")
	} else {
		s.println("[Upcoming] | History")
	}
	shown := 0
	for i, w := range s.workouts {
		if w.Completed != s.showHistory {
			continue
		}
		shown++
		action := "Start"
		if w.Completed {
			action = "Completed"
		}
		s.printf("%2d. %-20s %3d min  %-10s [%s]\n", i+1, w.Name, int(w.Duration.Minutes()), w.Type, action)
	}
	if shown == 0 {
		if s.showHistory {
			s.println("No workout history yet")
		} else {
			s.println("No upcoming workouts")
		}
	}
}

func (s *Shell) workoutCommand(cmd string, args []string) bool {
	switch cmd {
	case "upcoming":
		s.showHistory = false
	case "history":
		s.showHistory = true
	case "toggle":
		i, ok := index(args, len(s.workouts))
		if !ok {
			s.println("Usage: toggle <n>")
			return true
		}
		s.workouts[i].Completed = !s.workouts[i].Completed
	default:
		return false
	}
	s.renderWorkouts()
	return true
}

func (s *Shell) renderProfile() {
	p := s.store.Snapshot().Profile
	if p == nil {
		s.println("Loading profile...")
		return
	}
	printProfile(s, p)
	s.printf("Buddies: %d   Pending requests: %d\n", len(p.Buddies), len(p.ReceivedRequests))
}

func printProfile(s *Shell, p *models.Profile) {
	s.printf("%s (%s)\n", p.Name, p.Avatar().Asset)
	if p.Email != "" {
		s.printf("Email: %s\n", p.Email)
	}
	s.printf("Fitness level: %s\n", p.FitnessLevel)
	if len(p.WorkoutTypes) > 0 {
		s.printf("Workout types: %s\n", strings.Join(p.WorkoutTypes, ", "))
	}
	if p.Bio != "" {
		s.printf("Bio: %s\n", p.Bio)
	}
}

func (s *Shell) profileCommand(ctx context.Context, cmd string) bool {
	switch cmd {
	case "edit":
		if err := s.router.Push(navigation.Route{Screen: navigation.ScreenEditProfile}); err != nil {
			s.println(err.Error())
		}
	case "buddies":
		if err := s.router.Push(navigation.Route{Screen: navigation.ScreenMyBuddies}); err != nil {
			s.println(err.Error())
		}
	case "refresh":
		if err := s.store.RefreshProfile(ctx); err != nil {
			s.showError("Failed to refresh profile", err)
		}
		s.renderProfile()
	default:
		return false
	}
	return true
}
