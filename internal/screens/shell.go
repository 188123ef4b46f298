// Package screens implements the line-oriented front end of the app. The
// commands on offer depend on the screen the router currently shows.
package screens

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"gym-buddy/internal/models"
	"gym-buddy/internal/navigation"
	"gym-buddy/internal/session"
)

// Directory reads other users' profiles.
type Directory interface {
	List(ctx context.Context) ([]models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// BuddyActions performs the buddy request mutations for the signed-in account.
type BuddyActions interface {
	SendRequest(ctx context.Context, recipientID string) error
	AcceptRequest(ctx context.Context, requesterID string) error
	RejectRequest(ctx context.Context, requesterID string) error
}

const settleTimeout = 10 * time.Second

var errQuit = errors.New("quit")

// Shell drives the screens from text commands.
type Shell struct {
	store   *session.Store
	router  *navigation.Router
	dir     Directory
	buddies BuddyActions

	in    *bufio.Scanner
	outMu sync.Mutex
	out   io.Writer

	rendered navigation.Route

	// per-screen state
	query       string
	candidates  []models.Candidate
	workouts    []models.Workout
	showHistory bool
	pending     []models.Profile
	buddyList   []models.Profile
}

// NewShell wires a shell to the session store and router. The router should
// already be bound to the store.
func NewShell(store *session.Store, router *navigation.Router, dir Directory, buddies BuddyActions, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		store:    store,
		router:   router,
		dir:      dir,
		buddies:  buddies,
		in:       bufio.NewScanner(in),
		out:      out,
		workouts: models.SampleWorkouts(),
	}
}

func (s *Shell) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, args...)
}

// readLine prompts and reads one line. ok is false at end of input.
func (s *Shell) readLine(prompt string) (string, bool) {
	s.printf("%s", prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// Run processes commands until "quit", end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.println("Gym Buddy - type 'help' for the commands of each screen.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.waitUntil(ctx, func(st navigation.State) bool { return st != navigation.Loading }); err != nil {
			return err
		}

		route := s.router.Current()
		if route != s.rendered {
			s.rendered = route
			s.render(ctx, route)
		}

		var err error
		switch route.Screen {
		case navigation.ScreenProfileSetup:
			err = s.profileSetup(ctx)
		case navigation.ScreenEditProfile:
			err = s.editProfile(ctx)
		default:
			line, ok := s.readLine(promptFor(route))
			if !ok {
				return nil
			}
			err = s.dispatch(ctx, route, line)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func promptFor(route navigation.Route) string {
	return fmt.Sprintf("[%s]> ", route.Screen)
}

// waitUntil blocks until pred holds for the router state.
func (s *Shell) waitUntil(ctx context.Context, pred func(navigation.State) bool) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	for {
		changed := s.router.Changed()
		if pred(s.router.State()) {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("waiting for the session: %w", ctx.Err())
		}
	}
}

func (s *Shell) render(ctx context.Context, route navigation.Route) {
	switch route.Screen {
	case navigation.ScreenAuth:
		s.renderAuth()
	case navigation.ScreenProfileSetup:
		s.println("Complete Your Profile")
	case navigation.ScreenHome:
		s.renderHome()
	case navigation.ScreenFindBuddy:
		s.renderFindBuddy(ctx)
	case navigation.ScreenWorkout:
		s.renderWorkouts()
	case navigation.ScreenProfile:
		s.renderProfile()
	case navigation.ScreenEditProfile:
		s.println("Edit Profile (blank keeps a field, '-' clears workout types or bio, 'back' cancels)")
	case navigation.ScreenMyBuddies:
		s.renderMyBuddies(ctx)
	case navigation.ScreenBuddyProfile:
		s.renderBuddyProfile(ctx, route.Param)
	}
}

func (s *Shell) dispatch(ctx context.Context, route navigation.Route, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		s.help(route)
		return nil
	}

	if route.Screen == navigation.ScreenAuth {
		return s.authCommand(ctx, cmd, args)
	}

	// 主界面的通用命令
	switch cmd {
	case "home", "find", "workout", "profile":
		tab := map[string]navigation.Screen{
			"home":    navigation.ScreenHome,
			"find":    navigation.ScreenFindBuddy,
			"workout": navigation.ScreenWorkout,
			"profile": navigation.ScreenProfile,
		}[cmd]
		if err := s.router.SelectTab(tab); err != nil {
			s.println(err.Error())
		}
		s.rendered = navigation.Route{}
		return nil
	case "back":
		if err := s.router.Back(); err != nil {
			s.println("Nothing to go back to.")
			return nil
		}
		s.rendered = navigation.Route{}
		return nil
	case "show":
		s.rendered = navigation.Route{}
		return nil
	case "logout":
		return s.logout(ctx)
	}

	var handled bool
	switch route.Screen {
	case navigation.ScreenFindBuddy:
		handled = s.findBuddyCommand(ctx, cmd, args)
	case navigation.ScreenWorkout:
		handled = s.workoutCommand(cmd, args)
	case navigation.ScreenProfile:
		handled = s.profileCommand(ctx, cmd)
	case navigation.ScreenMyBuddies:
		handled = s.myBuddiesCommand(ctx, cmd, args)
	case navigation.ScreenBuddyProfile:
		handled = s.buddyProfileCommand(ctx, cmd, route.Param)
	}
	if !handled {
		s.printf("Unknown command %q. Type 'help'.\n", cmd)
	}
	return nil
}

func (s *Shell) help(route navigation.Route) {
	if route.Screen == navigation.ScreenAuth {
		s.println("  login <email> <password>")
		s.println("  signup <email> <password> <name>")
		s.println("  quit")
		return
	}
	s.println("  home | find | workout | profile   switch tab")
	s.println("  back | show | logout | quit")
	switch route.Screen {
	case navigation.ScreenFindBuddy:
		s.println("  search [text]    filter by name or workout type")
		s.println("  request <n>      send a buddy request")
		s.println("  view <n>         open a profile")
	case navigation.ScreenWorkout:
		s.println("  upcoming | history")
		s.println("  toggle <n>       mark a workout done or not done")
	case navigation.ScreenProfile:
		s.println("  edit | buddies | refresh")
	case navigation.ScreenMyBuddies:
		s.println("  accept <n> | reject <n>   answer a pending request")
		s.println("  view <n>                  open a buddy's profile")
		s.println("  refresh")
	case navigation.ScreenBuddyProfile:
		s.println("  request          send a buddy request")
	}
}

// index parses a 1-based list position.
func index(args []string, n int) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func (s *Shell) showError(title string, err error) {
	s.printf("%s: %v\n", title, err)
}
