package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"gym-buddy/internal/auth"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

const (
	// AccountIDKey 是用于在上下文中存储账号ID的键。
	AccountIDKey contextKey = "accountID"
	// EmailKey 是用于在上下文中存储邮箱的键。
	EmailKey contextKey = "email"
	// ClaimsKey 保存完整的 JWT 声明，登出时需要其中的 JTI 与过期时间。
	ClaimsKey contextKey = "claims"
)

// AuthMiddleware 返回一个 mux 中间件，验证 Bearer JWT（含黑名单检查）并把账号信息放入上下文。
func AuthMiddleware(jwtSecret string, blacklist auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w, "请求未包含有效的授权令牌")
				return
			}

			claims, err := auth.ValidateToken(r.Context(), tokenString, jwtSecret, blacklist)
			if err != nil {
				log.Printf("令牌校验失败 (%s %s): %v", r.Method, r.URL.Path, err)
				writeUnauthorized(w, "令牌无效")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	headerParts := strings.SplitN(authHeader, " ", 2)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") || headerParts[1] == "" {
		return "", false
	}
	return headerParts[1], true
}

// WithClaims stores the authenticated claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, claims.AccountID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetAccountIDFromContext 从上下文中获取账号ID。
func GetAccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AccountIDKey).(string)
	return id, ok && id != ""
}

// GetEmailFromContext 从上下文中获取邮箱。
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetClaimsFromContext 从上下文中获取 JWT 声明。
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": auth.CodeUnauthenticated})
}
