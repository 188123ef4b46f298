package client

import (
	"context"
	"log"
	"net/http"
	"sync"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/models"
)

// Identity 是身份服务的客户端实现，维护当前会话并向订阅者广播会话变化。
type Identity struct {
	c *Client

	mu      sync.Mutex
	current *models.AccountInfo
	subs    map[int]chan *models.AccountInfo
	nextSub int
}

// NewIdentity creates a signed-out identity bound to c.
func NewIdentity(c *Client) *Identity {
	return &Identity{c: c, subs: make(map[int]chan *models.AccountInfo)}
}

// CreateAccount registers a new account and signs it in.
func (i *Identity) CreateAccount(ctx context.Context, email, password string) (*models.AccountInfo, error) {
	return i.authenticate(ctx, "/auth/signup", email, password)
}

// SignIn authenticates an existing account.
func (i *Identity) SignIn(ctx context.Context, email, password string) (*models.AccountInfo, error) {
	return i.authenticate(ctx, "/auth/login", email, password)
}

func (i *Identity) authenticate(ctx context.Context, path, email, password string) (*models.AccountInfo, error) {
	var resp imtypes.AuthResponse
	if err := i.c.do(ctx, http.MethodPost, path, imtypes.CredentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	i.c.SetToken(resp.Token)
	account := resp.Account
	i.setCurrent(&account)
	return &account, nil
}

// Restore resumes a session from a previously issued token. An invalid or
// revoked token leaves the identity signed out.
func (i *Identity) Restore(ctx context.Context, token string) (*models.AccountInfo, error) {
	i.c.SetToken(token)
	var account models.AccountInfo
	if err := i.c.do(ctx, http.MethodGet, "/api/v1/auth/session", nil, &account); err != nil {
		i.c.SetToken("")
		i.setCurrent(nil)
		return nil, err
	}
	i.setCurrent(&account)
	return &account, nil
}

// SignOut revokes the token on the server and clears the local session.
// The local session is cleared even when the server call fails.
func (i *Identity) SignOut(ctx context.Context) error {
	var err error
	if i.c.Token() != "" {
		if err = i.c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
			log.Printf("注销令牌失败: %v", err)
		}
	}
	i.c.SetToken("")
	i.setCurrent(nil)
	return err
}

// CurrentAccount returns the signed-in account, or nil.
func (i *Identity) CurrentAccount() *models.AccountInfo {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current == nil {
		return nil
	}
	acc := *i.current
	return &acc
}

// Subscribe returns a channel that immediately receives the current session and
// then every change. Slow subscribers only see the latest change.
func (i *Identity) Subscribe() (<-chan *models.AccountInfo, func()) {
	i.mu.Lock()
	defer i.mu.Unlock()

	ch := make(chan *models.AccountInfo, 8)
	ch <- i.current
	id := i.nextSub
	i.nextSub++
	i.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			i.mu.Lock()
			delete(i.subs, id)
			i.mu.Unlock()
		})
	}
}

func (i *Identity) setCurrent(account *models.AccountInfo) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current = account
	for _, ch := range i.subs {
		for {
			select {
			case ch <- account:
			default:
				// 缓冲已满，丢弃最旧的一条再重试
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
