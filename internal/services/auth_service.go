package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/config"
	"gym-buddy/internal/metrics"
	"gym-buddy/internal/models"
	"gym-buddy/internal/storage"
)

var (
	ErrEmailInUse    = errors.New("邮箱已被注册")
	ErrInvalidEmail  = errors.New("邮箱格式无效")
	ErrWeakPassword  = errors.New("密码强度不足")
	ErrUserNotFound  = errors.New("用户未找到")
	ErrWrongPassword = errors.New("密码错误")
)

// AuthErrorCode maps an identity error to the code sent to clients.
// Unknown errors map to an empty code.
func AuthErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEmailInUse):
		return auth.CodeEmailInUse
	case errors.Is(err, ErrInvalidEmail):
		return auth.CodeInvalidEmail
	case errors.Is(err, ErrWeakPassword):
		return auth.CodeWeakPassword
	case errors.Is(err, ErrUserNotFound):
		return auth.CodeUserNotFound
	case errors.Is(err, ErrWrongPassword):
		return auth.CodeWrongPassword
	}
	return ""
}

// AuthService 定义了账号认证服务的接口。
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (account *models.Account, token string, err error)
	SignIn(ctx context.Context, email, password string) (account *models.Account, token string, err error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	Account(ctx context.Context, accountID string) (*models.Account, error)
}

// authService 是 AuthService 的实现。
type authService struct {
	accountRepo storage.AccountRepository
	blacklist   auth.TokenBlacklist
	cfg         config.AuthConfig
}

// NewAuthService 创建一个新的 AuthService 实例。blacklist 可以为 nil，此时登出不吊销令牌。
func NewAuthService(accountRepo storage.AccountRepository, blacklist auth.TokenBlacklist, cfg config.AuthConfig) AuthService {
	return &authService{
		accountRepo: accountRepo,
		blacklist:   blacklist,
		cfg:         cfg,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp 处理注册逻辑，成功后直接返回登录令牌。
func (s *authService) SignUp(ctx context.Context, email, password string) (account *models.Account, token string, err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("signup", metrics.Result(err)).Inc() }()

	email = NormalizeEmail(email)
	if addr, perr := mail.ParseAddress(email); perr != nil || addr.Address != email {
		return nil, "", ErrInvalidEmail
	}
	minLen := s.cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = 6
	}
	if len(password) < minLen {
		return nil, "", ErrWeakPassword
	}

	// 检查邮箱是否存在
	if _, err := s.accountRepo.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailInUse
	} else if !errors.Is(err, storage.ErrAccountNotFound) {
		return nil, "", fmt.Errorf("检查邮箱时出错: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("密码哈希失败: %w", err)
	}

	account = &models.Account{Email: email, PasswordHash: hashedPassword}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			// 并发注册同一邮箱
			return nil, "", ErrEmailInUse
		}
		return nil, "", fmt.Errorf("创建账号失败: %w", err)
	}

	token, err = auth.GenerateToken(account.ID, account.Email, s.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	log.Printf("新账号注册成功: %s", account.ID)
	return account, token, nil
}

// SignIn 处理登录逻辑。
func (s *authService) SignIn(ctx context.Context, email, password string) (account *models.Account, token string, err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("login", metrics.Result(err)).Inc() }()

	account, err = s.accountRepo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("通过邮箱查找账号失败: %w", err)
	}

	if !auth.CheckPasswordHash(password, account.PasswordHash) {
		return nil, "", ErrWrongPassword
	}

	token, err = auth.GenerateToken(account.ID, account.Email, s.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	return account, token, nil
}

// SignOut 把令牌的 JTI 加入黑名单，直到令牌原本的过期时间。
func (s *authService) SignOut(ctx context.Context, claims *auth.Claims) (err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("logout", metrics.Result(err)).Inc() }()

	if s.blacklist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("吊销令牌失败: %w", err)
	}
	return nil
}

func (s *authService) Account(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrUserNotFound
	}
	return account, err
}
