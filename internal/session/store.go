package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gym-buddy/internal/models"
)

// ErrNoSession is returned by operations that need a signed-in account.
var ErrNoSession = errors.New("No user is currently logged in")

// IdentityProvider 是身份服务的客户端接口。
// Subscribe 返回的通道在订阅时立即收到当前会话（未登录为 nil），之后每次会话变化收到一次。
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*models.AccountInfo, error)
	SignIn(ctx context.Context, email, password string) (*models.AccountInfo, error)
	SignOut(ctx context.Context) error
	Subscribe() (<-chan *models.AccountInfo, func())
	CurrentAccount() *models.AccountInfo
}

// ProfileStore is the document store holding one profile per account.
// Get returns models.ErrProfileNotFound for a missing document.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Put(ctx context.Context, profile *models.Profile) error
	Patch(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
}

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	Loading bool
	Account *models.AccountInfo
	Profile *models.Profile
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAvatarPicker overrides the random avatar choice made at signup.
func WithAvatarPicker(pick func() int) Option {
	return func(s *Store) { s.pickAvatar = pick }
}

// Store 是会话与资料的唯一状态来源。
// 会话变化在一个 goroutine 中按顺序处理，资料读取总是在对应的会话变化之后。
type Store struct {
	idp        IdentityProvider
	profiles   ProfileStore
	now        func() time.Time
	pickAvatar func() int

	mu    sync.RWMutex
	state Snapshot
	// 每次本地写入资料都递增；会话处理中读取的旧资料不会覆盖更新的本地写入
	rev uint64

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
	notifyMu  sync.Mutex

	startOnce sync.Once
	stop      func()
	done      chan struct{}
}

// NewStore creates a store in the Loading state. Call Start to begin
// following session changes.
func NewStore(idp IdentityProvider, profiles ProfileStore, opts ...Option) *Store {
	s := &Store{
		idp:        idp,
		profiles:   profiles,
		now:        time.Now,
		pickAvatar: models.RandomAvatarIndex,
		state:      Snapshot{Loading: true},
		observers:  make(map[int]func(Snapshot)),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the identity provider. The subscription lasts until
// ctx is canceled or Close is called.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		changes, unsubscribe := s.idp.Subscribe()
		s.stop = func() {
			cancel()
			unsubscribe()
		}
		go s.loop(ctx, changes)
	})
}

// Close unsubscribes from the identity provider and waits for the loop to exit.
func (s *Store) Close() {
	started := false
	s.startOnce.Do(func() {})
	if s.stop != nil {
		s.stop()
		started = true
	}
	if started {
		<-s.done
	}
}

func (s *Store) loop(ctx context.Context, changes <-chan *models.AccountInfo) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case account, ok := <-changes:
			if !ok {
				return
			}
			s.handleSessionChange(ctx, account)
		}
	}
}

// handleSessionChange 处理一次会话变化。读取资料失败时降级为“无资料”，不向外抛出。
func (s *Store) handleSessionChange(ctx context.Context, account *models.AccountInfo) {
	if account == nil {
		s.mu.Lock()
		s.state = Snapshot{}
		s.rev++
		s.mu.Unlock()
		s.notify()
		return
	}

	s.mu.Lock()
	s.state.Account = account
	rev := s.rev
	s.mu.Unlock()

	profile, err := s.profiles.Get(ctx, account.ID)
	switch {
	case errors.Is(err, models.ErrProfileNotFound):
		// 资料尚未创建：使用本地的最小资料，引导进入资料设置
		profile = models.NewProfile(account.ID, account.Email, 0, s.now().UTC())
	case err != nil:
		log.Printf("加载用户资料失败 (账号 %s): %v", account.ID, err)
		profile = nil
	}

	s.mu.Lock()
	if current := s.state.Account; current == nil || current.ID != account.ID {
		// 处理期间会话又变了，下一次会话变化会覆盖状态
		s.mu.Unlock()
		return
	}
	if s.rev == rev {
		s.state.Profile = profile
	}
	s.state.Loading = false
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state
	if snap.Account != nil {
		acc := *snap.Account
		snap.Account = &acc
	}
	snap.Profile = snap.Profile.Clone()
	return snap
}

// Observe registers fn to be called with the latest snapshot after every
// change, and once immediately. Observers must not call the Store's mutating
// methods synchronously.
func (s *Store) Observe(fn func(Snapshot)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	s.notifyMu.Lock()
	fn(s.Snapshot())
	s.notifyMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.obsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// WaitFor blocks until pred holds for the current state or ctx is done.
func (s *Store) WaitFor(ctx context.Context, pred func(Snapshot) bool) error {
	ready := make(chan struct{})
	var once sync.Once
	cancel := s.Observe(func(snap Snapshot) {
		if pred(snap) {
			once.Do(func() { close(ready) })
		}
	})
	defer cancel()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login delegates to the identity provider. The profile is loaded when the
// resulting session change arrives.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if _, err := s.idp.SignIn(ctx, email, password); err != nil {
		log.Printf("登录失败: %v", err)
		return err
	}
	return nil
}

// Signup creates the account and writes a minimal profile with an empty name,
// which forces the profile setup flow. The display name is collected by the
// setup screen, not stored here.
func (s *Store) Signup(ctx context.Context, email, password, _ string) error {
	s.setLoading(true)
	account, err := s.idp.CreateAccount(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		log.Printf("注册失败: %v", err)
		return err
	}

	profile := models.NewProfile(account.ID, account.Email, s.pickAvatar(), s.now().UTC())
	if err := s.profiles.Put(ctx, profile); err != nil {
		s.setLoading(false)
		return fmt.Errorf("create profile: %w", err)
	}

	s.mu.Lock()
	s.state.Account = account
	s.state.Profile = profile
	s.state.Loading = false
	s.rev++
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	s.mu.Unlock()
	s.notify()
}

// Logout delegates to the identity provider; the session change clears the profile.
func (s *Store) Logout(ctx context.Context) error {
	return s.idp.SignOut(ctx)
}

// UpdateProfile writes patch and applies the profile as stored to the local
// copy, so server-side normalization and timestamps are kept. A missing
// document is created from a minimal profile. Concurrent updates are
// last-write-wins.
func (s *Store) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	account := s.idp.CurrentAccount()
	if account == nil {
		log.Println("更新资料失败: 当前没有登录用户")
		return nil, ErrNoSession
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.profiles.Patch(ctx, account.ID, patch)
	if errors.Is(err, models.ErrProfileNotFound) {
		stored, err = s.createProfile(ctx, account, patch)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Account = account
	s.state.Profile = stored.Clone()
	s.rev++
	s.mu.Unlock()
	s.notify()
	return stored, nil
}

func (s *Store) createProfile(ctx context.Context, account *models.AccountInfo, patch models.ProfilePatch) (*models.Profile, error) {
	now := s.now().UTC()
	merged := patch.Merge(models.NewProfile(account.ID, account.Email, 0, now), now)
	if err := s.profiles.Put(ctx, merged); err != nil {
		return nil, err
	}
	stored, err := s.profiles.Get(ctx, account.ID)
	if err != nil {
		// 写入已成功，读回失败时使用本地合并结果
		log.Printf("读取刚创建的资料失败: %v", err)
		return merged, nil
	}
	return stored, nil
}

// RefreshProfile re-reads the profile. A missing document clears the local copy.
// It is a no-op without a session.
func (s *Store) RefreshProfile(ctx context.Context) error {
	account := s.idp.CurrentAccount()
	if account == nil {
		return nil
	}

	s.mu.RLock()
	rev := s.rev
	s.mu.RUnlock()

	profile, err := s.profiles.Get(ctx, account.ID)
	if errors.Is(err, models.ErrProfileNotFound) {
		profile, err = nil, nil
	}
	if err != nil {
		log.Printf("刷新用户资料失败: %v", err)
		return err
	}

	s.mu.Lock()
	if s.rev != rev {
		s.mu.Unlock()
		return nil
	}
	s.state.Profile = profile
	s.rev++
	s.mu.Unlock()
	s.notify()
	return nil
}
