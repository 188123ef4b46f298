package screens

import (
	"context"
	"errors"
	"log"

	"gym-buddy/internal/models"
	"gym-buddy/internal/navigation"
)

// loadProfiles resolves ids to profiles, skipping accounts whose profile is gone.
func (s *Shell) loadProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := s.dir.Get(ctx, id)
		if errors.Is(err, models.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *Shell) renderMyBuddies(ctx context.Context) {
	if err := s.store.RefreshProfile(ctx); err != nil {
		log.Printf("加载好友数据失败: %v", err)
	}
	me := s.store.Snapshot().Profile
	if me == nil {
		s.println("Failed to load data. Please try again.")
		return
	}

	var err error
	if s.pending, err = s.loadProfiles(ctx, me.ReceivedRequests); err != nil {
		log.Printf("加载好友请求失败: %v", err)
		s.println("Failed to load data. Please try again.")
		return
	}
	if s.buddyList, err = s.loadProfiles(ctx, me.Buddies); err != nil {
		log.Printf("加载好友列表失败: %v", err)
		s.println("Failed to load data. Please try again.")
		return
	}

	s.println("Pending Requests")
	if len(s.pending) == 0 {
		s.println("  No pending requests")
	}
	for i, p := range s.pending {
		s.printf("%2d. %-20s %s\n", i+1, p.Name, p.FitnessLevel)
	}
	s.println("My Buddies")
	if len(s.buddyList) == 0 {
		s.println("  You don't have any buddies yet. Find some on the Find Buddy tab!")
	}
	for i, p := range s.buddyList {
		s.printf("%2d. %-20s %s\n", i+1, p.Name, p.FitnessLevel)
	}
}

func (s *Shell) myBuddiesCommand(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "accept", "reject":
		i, ok := index(args, len(s.pending))
		if !ok {
			s.printf("Usage: %s <n>\n", cmd)
			return true
		}
		requester := s.pending[i]
		var err error
		if cmd == "accept" {
			err = s.buddies.AcceptRequest(ctx, requester.ID)
		} else {
			err = s.buddies.RejectRequest(ctx, requester.ID)
		}
		if err != nil {
			log.Printf("处理好友请求失败 (%s %s): %v", cmd, requester.ID, err)
			s.showError("Failed to "+cmd+" request. Please try again.", err)
			return true
		}
		if cmd == "accept" {
			s.printf("You and %s are now buddies!\n", requester.Name)
		} else {
			s.printf("Request from %s rejected.\n", requester.Name)
		}
		s.renderMyBuddies(ctx)
	case "view":
		i, ok := index(args, len(s.buddyList))
		if !ok {
			s.println("Usage: view <n>")
			return true
		}
		if err := s.router.Push(navigation.Route{Screen: navigation.ScreenBuddyProfile, Param: s.buddyList[i].ID}); err != nil {
			s.println(err.Error())
		}
	case "refresh":
		s.renderMyBuddies(ctx)
	default:
		return false
	}
	return true
}

func (s *Shell) renderBuddyProfile(ctx context.Context, id string) {
	p, err := s.dir.Get(ctx, id)
	if err != nil {
		s.showError("Failed to load profile", err)
		return
	}
	printProfile(s, p)
	s.printf("Status: %s\n", badge(models.StatusFor(s.store.Snapshot().Profile, id)))
}

func (s *Shell) buddyProfileCommand(ctx context.Context, cmd, id string) bool {
	if cmd != "request" {
		return false
	}
	p, err := s.dir.Get(ctx, id)
	if err != nil {
		s.showError("Failed to load profile", err)
		return true
	}
	s.sendRequest(ctx, *p, models.StatusFor(s.store.Snapshot().Profile, id))
	return true
}
