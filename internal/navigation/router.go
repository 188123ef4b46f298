// Package navigation decides which screen the app shows from the session state.
package navigation

import (
	"context"
	"errors"
	"log"
	"sync"

	"gym-buddy/internal/session"
)

// State is the top-level app state derived from the session snapshot.
type State int

const (
	Loading State = iota
	Unauthenticated
	ProfileIncomplete
	MainApp
)

func (s State) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Unauthenticated:
		return "Unauthenticated"
	case ProfileIncomplete:
		return "ProfileIncomplete"
	case MainApp:
		return "MainApp"
	}
	return "Unknown"
}

// Resolve maps a session snapshot to a state. Only a signed-in account whose
// profile has a name reaches MainApp.
func Resolve(snap session.Snapshot) State {
	switch {
	case snap.Loading:
		return Loading
	case snap.Account == nil:
		return Unauthenticated
	case !snap.Profile.IsComplete():
		return ProfileIncomplete
	default:
		return MainApp
	}
}

// Screen names one screen of the app.
type Screen string

const (
	ScreenLoading      Screen = "Loading"
	ScreenAuth         Screen = "Auth"
	ScreenProfileSetup Screen = "ProfileSetup"

	// Tabs of the main app.
	ScreenHome      Screen = "Home"
	ScreenFindBuddy Screen = "FindBuddy"
	ScreenWorkout   Screen = "Workout"
	ScreenProfile   Screen = "Profile"

	// Screens pushed on top of a tab.
	ScreenEditProfile  Screen = "EditProfile"
	ScreenMyBuddies    Screen = "MyBuddies"
	ScreenBuddyProfile Screen = "BuddyProfile"
)

// Tabs lists the main app tabs in display order.
var Tabs = []Screen{ScreenHome, ScreenFindBuddy, ScreenWorkout, ScreenProfile}

var (
	ErrNotAvailable = errors.New("screen not available in the current state")
	ErrAtRoot       = errors.New("already at the root screen")
)

// Route is one entry of the screen stack. Param carries the viewed account ID
// for ScreenBuddyProfile.
type Route struct {
	Screen Screen
	Param  string
}

func rootOf(s State) Route {
	switch s {
	case Unauthenticated:
		return Route{Screen: ScreenAuth}
	case ProfileIncomplete:
		return Route{Screen: ScreenProfileSetup}
	case MainApp:
		return Route{Screen: ScreenHome}
	}
	return Route{Screen: ScreenLoading}
}

func isTab(s Screen) bool {
	for _, t := range Tabs {
		if t == s {
			return true
		}
	}
	return false
}

func isPushable(s Screen) bool {
	return s == ScreenEditProfile || s == ScreenMyBuddies || s == ScreenBuddyProfile
}

// Router 维护当前状态和页面栈。
// 每次状态变化都会把页面栈重置为该状态的根页面，因此离开资料设置页后无法返回。
type Router struct {
	mu      sync.Mutex
	state   State
	stack   []Route
	changed chan struct{} // 每次变化时关闭并替换
}

// NewRouter creates a router in the Loading state.
func NewRouter() *Router {
	return &Router{
		state:   Loading,
		stack:   []Route{rootOf(Loading)},
		changed: make(chan struct{}),
	}
}

// Bind keeps the router in sync with store until the returned func is called.
func (r *Router) Bind(store *session.Store) (unbind func()) {
	return store.Observe(func(snap session.Snapshot) { r.Sync(snap) })
}

// Sync re-evaluates the state from snap. It reports whether the state changed.
func (r *Router) Sync(snap session.Snapshot) bool {
	next := Resolve(snap)

	r.mu.Lock()
	defer r.mu.Unlock()
	if next == r.state {
		return false
	}
	log.Printf("导航状态变化: %s -> %s", r.state, next)
	r.state = next
	r.stack = []Route{rootOf(next)}
	r.signalLocked()
	return true
}

func (r *Router) signalLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// State returns the current state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Current returns the screen on top of the stack.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack[len(r.stack)-1]
}

// Stack returns a copy of the screen stack, root first.
func (r *Router) Stack() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.stack...)
}

// SelectTab switches the main app to tab, dropping any pushed screens.
func (r *Router) SelectTab(tab Screen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != MainApp || !isTab(tab) {
		return ErrNotAvailable
	}
	r.stack = []Route{{Screen: tab}}
	r.signalLocked()
	return nil
}

// Push opens a secondary screen on top of the current tab.
func (r *Router) Push(route Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != MainApp || !isPushable(route.Screen) {
		return ErrNotAvailable
	}
	r.stack = append(r.stack, route)
	r.signalLocked()
	return nil
}

// Back pops the top screen. Root screens cannot be left this way.
func (r *Router) Back() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) <= 1 {
		return ErrAtRoot
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.signalLocked()
	return nil
}

// CanGoBack reports whether Back would succeed.
func (r *Router) CanGoBack() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack) > 1
}

// Changed returns a channel closed on the next change of state or stack.
func (r *Router) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// WaitFor blocks until the router reaches state or ctx is done.
func (r *Router) WaitFor(ctx context.Context, state State) error {
	for {
		r.mu.Lock()
		if r.state == state {
			r.mu.Unlock()
			return nil
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
