package screens

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/models"
	"gym-buddy/internal/navigation"
	"gym-buddy/internal/session"
)

type codeError string

func (e codeError) Error() string     { return string(e) }
func (e codeError) ErrorCode() string { return string(e) }

// backend is an in-memory identity provider and profile store acting for the
// signed-in account.
type backend struct {
	mu        sync.Mutex
	passwords map[string]string
	ids       map[string]string
	profiles  map[string]*models.Profile
	current   *models.AccountInfo
	subs      []chan *models.AccountInfo
}

func newBackend() *backend {
	return &backend{passwords: map[string]string{}, ids: map[string]string{}, profiles: map[string]*models.Profile{}}
}

// addUser registers an account with a complete profile.
func (b *backend) addUser(id, email, name string, types ...string) *models.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passwords[email] = "secret1"
	b.ids[email] = id
	p := models.NewProfile(id, email, 1, time.Now().UTC())
	p.Name = name
	p.WorkoutTypes = types
	p.Normalize()
	b.profiles[id] = p
	return p
}

// actAs switches the signed-in account without notifying subscribers.
func (b *backend) actAs(a *models.AccountInfo) {
	b.mu.Lock()
	b.current = a
	b.mu.Unlock()
}

func (b *backend) profile(id string) *models.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profiles[id].Clone()
}

func (b *backend) setCurrentLocked(a *models.AccountInfo) {
	b.current = a
	for _, ch := range b.subs {
		ch <- a
	}
}

func (b *backend) CreateAccount(_ context.Context, email, password string) (*models.AccountInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.passwords[email]; ok {
		return nil, codeError(auth.CodeEmailInUse)
	}
	b.passwords[email] = password
	id := fmt.Sprintf("user-%d", len(b.ids)+1)
	b.ids[email] = id
	b.setCurrentLocked(&models.AccountInfo{ID: id, Email: email})
	return b.current, nil
}

func (b *backend) SignIn(_ context.Context, email, password string) (*models.AccountInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pw, ok := b.passwords[email]
	if !ok {
		return nil, codeError(auth.CodeUserNotFound)
	}
	if pw != password {
		return nil, codeError(auth.CodeWrongPassword)
	}
	b.setCurrentLocked(&models.AccountInfo{ID: b.ids[email], Email: email})
	return b.current, nil
}

func (b *backend) SignOut(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCurrentLocked(nil)
	return nil
}

func (b *backend) Subscribe() (<-chan *models.AccountInfo, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *models.AccountInfo, 32)
	ch <- b.current
	b.subs = append(b.subs, ch)
	return ch, func() {}
}

func (b *backend) CurrentAccount() *models.AccountInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *backend) Get(_ context.Context, id string) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (b *backend) Put(_ context.Context, p *models.Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := p.Clone()
	c.Normalize()
	b.profiles[p.ID] = c
	return nil
}

func (b *backend) Patch(_ context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.profiles[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	patch.Apply(p)
	return p.Clone(), nil
}

func (b *backend) List(context.Context) ([]models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Profile, 0, len(b.profiles))
	for _, p := range b.profiles {
		out = append(out, *p.Clone())
	}
	return out, nil
}

func (b *backend) SendRequest(_ context.Context, to string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	self, other := b.profiles[b.current.ID], b.profiles[to]
	self.SentRequests = models.AddToSet(self.SentRequests, to)
	other.ReceivedRequests = models.AddToSet(other.ReceivedRequests, self.ID)
	return nil
}

func (b *backend) AcceptRequest(_ context.Context, requester string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	self, other := b.profiles[b.current.ID], b.profiles[requester]
	self.Buddies = models.AddToSet(self.Buddies, requester)
	self.ReceivedRequests = models.RemoveFromSet(self.ReceivedRequests, requester)
	other.Buddies = models.AddToSet(other.Buddies, self.ID)
	other.SentRequests = models.RemoveFromSet(other.SentRequests, self.ID)
	return nil
}

func (b *backend) RejectRequest(_ context.Context, requester string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	self, other := b.profiles[b.current.ID], b.profiles[requester]
	self.ReceivedRequests = models.RemoveFromSet(self.ReceivedRequests, requester)
	other.SentRequests = models.RemoveFromSet(other.SentRequests, self.ID)
	return nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func newShell(t *testing.T, b *backend, input string) (*Shell, *session.Store, *navigation.Router, *syncBuffer) {
	t.Helper()
	store := session.NewStore(b, b)
	router := navigation.NewRouter()
	unbind := router.Bind(store)
	store.Start(context.Background())
	t.Cleanup(func() {
		store.Close()
		unbind()
	})
	out := &syncBuffer{}
	return NewShell(store, router, b, b, strings.NewReader(input), out), store, router, out
}

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

func TestSignupSetupAndFindBuddy(t *testing.T) {
	b := newBackend()
	b.addUser("bob", "b@x.com", "Bob", "Yoga")
	b.addUser("carol", "c@x.com", "Carol", "Cycling")

	shell, store, router, out := newShell(t, b, lines(
		"signup a@x.com secret1 Alice",
		"", // blank name is rejected
		"1",
		"",
		"",
		"Alice",
		"2",
		"yoga, running",
		"Hi there",
		"find",
		"search yoga",
		"request 1",
		"workout",
		"toggle 1",
		"history",
		"profile",
		"edit",
		"",
		"3",
		"-",
		"",
		"quit",
	))
	require.NoError(t, shell.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Complete Your Profile")
	assert.Contains(t, text, "Error: Please enter your name")
	assert.Contains(t, text, "Welcome Back, Alice!")
	assert.Contains(t, text, "[Connect]")
	assert.Contains(t, text, "Buddy request sent to Bob!")
	assert.Contains(t, text, "[Pending]")
	assert.Contains(t, text, `Search: "yoga"`)
	assert.Contains(t, text, "Morning Cardio")
	assert.Contains(t, text, "Profile updated successfully!")

	me := store.Snapshot().Profile
	require.NotNil(t, me)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, models.FitnessAdvanced, me.FitnessLevel)
	assert.Empty(t, me.WorkoutTypes)
	assert.Equal(t, "Hi there", me.Bio)
	assert.Equal(t, []string{"bob"}, []string(me.SentRequests))
	assert.Equal(t, []string{me.ID}, []string(b.profile("bob").ReceivedRequests))

	assert.Equal(t, navigation.MainApp, router.State())
	assert.Equal(t, navigation.ScreenProfile, router.Current().Screen)
}

func TestEditProfileCancelAndClearBio(t *testing.T) {
	b := newBackend()
	shell, store, router, out := newShell(t, b, lines(
		"signup a@x.com secret1 Alice",
		"Alice",
		"2",
		"yoga",
		"Hi there",
		"profile",
		"edit",
		"",
		"9", // not a level, the form asks again
		"",
		"",
		"back",
		"edit",
		"",
		"",
		"",
		"-",
		"quit",
	))
	require.NoError(t, shell.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Error: Please select your fitness level")
	assert.Contains(t, text, "Edit cancelled.")
	assert.Contains(t, text, "Profile updated successfully!")

	me := store.Snapshot().Profile
	require.NotNil(t, me)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, models.FitnessIntermediate, me.FitnessLevel)
	assert.Equal(t, []string{"Yoga"}, []string(me.WorkoutTypes))
	assert.Empty(t, me.Bio)

	assert.Equal(t, navigation.ScreenProfile, router.Current().Screen)
	assert.False(t, router.CanGoBack())
}

func TestMyBuddiesAcceptAndBackNavigation(t *testing.T) {
	b := newBackend()
	b.addUser("alice", "a@x.com", "Alice", "Running")
	b.addUser("bob", "b@x.com", "Bob", "Yoga")
	b.actAs(&models.AccountInfo{ID: "bob"})
	require.NoError(t, b.SendRequest(context.Background(), "alice"))
	b.actAs(nil)

	shell, _, router, out := newShell(t, b, lines(
		"login a@x.com secret1",
		"back",
		"profile",
		"buddies",
		"accept 1",
		"view 1",
		"back",
		"back",
		"quit",
	))
	require.NoError(t, shell.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Nothing to go back to.")
	assert.Contains(t, text, "You and Bob are now buddies!")
	assert.Contains(t, text, "Status: Buddies")

	assert.Equal(t, []string{"bob"}, []string(b.profile("alice").Buddies))
	assert.Equal(t, []string{"alice"}, []string(b.profile("bob").Buddies))
	assert.Empty(t, b.profile("bob").SentRequests)
	assert.Equal(t, navigation.ScreenProfile, router.Current().Screen)
}

func TestAuthScreenErrors(t *testing.T) {
	b := newBackend()
	b.addUser("alice", "a@x.com", "Alice")

	shell, _, router, out := newShell(t, b, lines(
		"login",
		"signup new@x.com secret1",
		"login nobody@x.com secret1",
		"login a@x.com wrong",
		"signup a@x.com secret1 Alice",
		"home",
		"quit",
	))
	require.NoError(t, shell.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Error: Please enter both email and password")
	assert.Contains(t, text, "Error: Please enter your name")
	assert.Contains(t, text, "No user found with this email. Please check your email or sign up.")
	assert.Contains(t, text, "Incorrect password. Please try again.")
	assert.Contains(t, text, "This email is already in use.")
	assert.Contains(t, text, `Unknown command "home"`)
	assert.Equal(t, navigation.Unauthenticated, router.State())
}

func TestLogoutReturnsToAuth(t *testing.T) {
	b := newBackend()
	b.addUser("alice", "a@x.com", "Alice")

	shell, store, router, _ := newShell(t, b, lines("login a@x.com secret1", "logout", "quit"))
	require.NoError(t, shell.Run(context.Background()))
	assert.Equal(t, navigation.Unauthenticated, router.State())
	assert.Nil(t, store.Snapshot().Profile)
}

type fakeWatcher struct {
	events chan imtypes.ProfileEvent
}

func (w *fakeWatcher) Watch(ctx context.Context, fn func(imtypes.ProfileEvent)) error {
	for {
		select {
		case e := <-w.events:
			fn(e)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestFollowEventsRefreshesProfile(t *testing.T) {
	b := newBackend()
	b.addUser("alice", "a@x.com", "Alice")
	b.addUser("bob", "b@x.com", "Bob")

	shell, store, _, out := newShell(t, b, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Login(ctx, "a@x.com", "secret1"))
	require.NoError(t, store.WaitFor(ctx, func(s session.Snapshot) bool { return s.Profile != nil }))

	w := &fakeWatcher{events: make(chan imtypes.ProfileEvent, 1)}
	go shell.FollowEvents(ctx, w)

	b.actAs(&models.AccountInfo{ID: "bob"})
	require.NoError(t, b.SendRequest(ctx, "alice"))
	b.actAs(&models.AccountInfo{ID: "alice", Email: "a@x.com"})
	w.events <- imtypes.ProfileEvent{Type: imtypes.EventBuddyRequestReceived, RecipientID: "alice", ActorID: "bob"}

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Bob sent you a buddy request.")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"bob"}, []string(store.Snapshot().Profile.ReceivedRequests))
}
