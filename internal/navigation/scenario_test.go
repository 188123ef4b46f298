package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gym-buddy/internal/models"
	"gym-buddy/internal/session"
)

// singleUserIdentity signs up exactly one account and never fails.
type singleUserIdentity struct {
	mu      sync.Mutex
	current *models.AccountInfo
	subs    []chan *models.AccountInfo
}

func (f *singleUserIdentity) set(a *models.AccountInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = a
	for _, ch := range f.subs {
		ch <- a
	}
}

func (f *singleUserIdentity) CreateAccount(_ context.Context, email, _ string) (*models.AccountInfo, error) {
	a := &models.AccountInfo{ID: "u1", Email: email}
	f.set(a)
	return a, nil
}

func (f *singleUserIdentity) SignIn(ctx context.Context, email, pw string) (*models.AccountInfo, error) {
	return f.CreateAccount(ctx, email, pw)
}

func (f *singleUserIdentity) SignOut(context.Context) error {
	f.set(nil)
	return nil
}

func (f *singleUserIdentity) Subscribe() (<-chan *models.AccountInfo, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan *models.AccountInfo, 8)
	ch <- f.current
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *singleUserIdentity) CurrentAccount() *models.AccountInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

type mapProfiles struct {
	mu   sync.Mutex
	docs map[string]*models.Profile
}

func (m *mapProfiles) Get(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.docs[id]; ok {
		return p.Clone(), nil
	}
	return nil, models.ErrProfileNotFound
}

func (m *mapProfiles) Put(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = p.Clone()
	return nil
}

func (m *mapProfiles) Patch(_ context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	patch.Apply(p)
	return p.Clone(), nil
}

func TestSignupUpdateReachesMainApp(t *testing.T) {
	profiles := &mapProfiles{docs: map[string]*models.Profile{}}
	store := session.NewStore(&singleUserIdentity{}, profiles)
	router := NewRouter()
	unbind := router.Bind(store)
	defer unbind()
	store.Start(context.Background())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, router.WaitFor(ctx, Unauthenticated))

	require.NoError(t, store.Signup(ctx, "a@x.com", "pw", ""))
	require.NoError(t, router.WaitFor(ctx, ProfileIncomplete))
	assert.Equal(t, ScreenProfileSetup, router.Current().Screen)

	stored, err := profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "", stored.Name)
	assert.Equal(t, models.FitnessBeginner, stored.FitnessLevel)
	assert.Empty(t, stored.WorkoutTypes)

	_, err = store.UpdateProfile(ctx, models.ProfilePatch{
		Name:         models.StringPtr("Alice"),
		FitnessLevel: models.LevelPtr(models.FitnessIntermediate),
	})
	require.NoError(t, err)
	require.NoError(t, router.WaitFor(ctx, MainApp))
	assert.Equal(t, ScreenHome, router.Current().Screen)
	assert.False(t, router.CanGoBack())

	require.NoError(t, store.Logout(ctx))
	require.NoError(t, router.WaitFor(ctx, Unauthenticated))
}

func TestUnbindStopsFollowingStore(t *testing.T) {
	profiles := &mapProfiles{docs: map[string]*models.Profile{}}
	store := session.NewStore(&singleUserIdentity{}, profiles)
	router := NewRouter()
	unbind := router.Bind(store)
	store.Start(context.Background())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, router.WaitFor(ctx, Unauthenticated))

	unbind()
	require.NoError(t, store.Signup(ctx, "a@x.com", "pw", ""))
	require.NoError(t, store.WaitFor(ctx, func(s session.Snapshot) bool { return s.Account != nil && !s.Loading }))
	assert.Equal(t, Unauthenticated, router.State())
}
