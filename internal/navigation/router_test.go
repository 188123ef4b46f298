package navigation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gym-buddy/internal/models"
	"gym-buddy/internal/session"
)

var (
	account  = &models.AccountInfo{ID: "u1", Email: "a@x.com"}
	now      = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	minimal  = models.NewProfile("u1", "a@x.com", 0, now)
	complete = func() *models.Profile {
		p := models.NewProfile("u1", "a@x.com", 0, now)
		p.Name = "Alice"
		return p
	}()
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want State
	}{
		{"initial", session.Snapshot{Loading: true}, Loading},
		{"signed out", session.Snapshot{}, Unauthenticated},
		{"no profile", session.Snapshot{Account: account}, ProfileIncomplete},
		{"empty name", session.Snapshot{Account: account, Profile: minimal}, ProfileIncomplete},
		{"named", session.Snapshot{Account: account, Profile: complete}, MainApp},
		{"profile without session", session.Snapshot{Profile: complete}, Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.snap))
		})
	}
}

func TestRouterResetsStackOnStateChange(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, ScreenLoading, r.Current().Screen)

	assert.True(t, r.Sync(session.Snapshot{Account: account, Profile: minimal}))
	assert.Equal(t, ScreenProfileSetup, r.Current().Screen)
	assert.ErrorIs(t, r.Push(Route{Screen: ScreenEditProfile}), ErrNotAvailable)
	assert.ErrorIs(t, r.SelectTab(ScreenFindBuddy), ErrNotAvailable)

	assert.True(t, r.Sync(session.Snapshot{Account: account, Profile: complete}))
	assert.Equal(t, MainApp, r.State())
	assert.Equal(t, []Route{{Screen: ScreenHome}}, r.Stack())
	assert.False(t, r.CanGoBack())
	assert.ErrorIs(t, r.Back(), ErrAtRoot)

	assert.False(t, r.Sync(session.Snapshot{Account: account, Profile: complete}), "same state keeps the stack")
}

func TestRouterTabsAndPushedScreens(t *testing.T) {
	r := NewRouter()
	r.Sync(session.Snapshot{Account: account, Profile: complete})

	require.NoError(t, r.SelectTab(ScreenProfile))
	require.NoError(t, r.Push(Route{Screen: ScreenMyBuddies}))
	require.NoError(t, r.Push(Route{Screen: ScreenBuddyProfile, Param: "u2"}))
	assert.Equal(t, Route{Screen: ScreenBuddyProfile, Param: "u2"}, r.Current())
	assert.ErrorIs(t, r.Push(Route{Screen: ScreenAuth}), ErrNotAvailable)
	assert.ErrorIs(t, r.SelectTab(ScreenEditProfile), ErrNotAvailable)

	require.NoError(t, r.Back())
	assert.Equal(t, ScreenMyBuddies, r.Current().Screen)

	require.NoError(t, r.SelectTab(ScreenWorkout))
	assert.False(t, r.CanGoBack())

	r.Sync(session.Snapshot{})
	assert.Equal(t, []Route{{Screen: ScreenAuth}}, r.Stack())
}

func TestRouterWaitFor(t *testing.T) {
	r := NewRouter()
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Sync(session.Snapshot{})
		r.Sync(session.Snapshot{Account: account, Profile: complete})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.WaitFor(ctx, MainApp))

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, r.WaitFor(short, ProfileIncomplete), context.DeadlineExceeded)
}
