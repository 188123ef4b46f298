package auth

import (
	"context"
	"fmt"
	"time"

	"gym-buddy/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "gym-buddy-identity"

// Claims 是 JWT 中的自定义声明，嵌入了 jwt.RegisteredClaims。
// Subject 与 AccountID 相同；ID (JTI) 用于登出时加入黑名单。
type Claims struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken 为指定账号生成一个新的 JWT。
func GenerateToken(accountID, email string, authCfg config.AuthConfig) (string, error) {
	jwtID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("生成 JWT ID 失败: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(authCfg.JWTExpiry)),
			ID:        jwtID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(authCfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("生成 JWT 失败: %w", err)
	}
	return tokenString, nil
}

// ValidateToken 验证给定的 JWT 字符串，并检查是否已被吊销。
// blacklist 为 nil 时跳过吊销检查。
func ValidateToken(ctx context.Context, tokenString string, jwtKey string, blacklist TokenBlacklist) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", token.Header["alg"])
		}
		return []byte(jwtKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("解析或验证 JWT 失败: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("JWT 无效")
	}
	if claims.AccountID == "" {
		return nil, fmt.Errorf("JWT 缺少账号 ID")
	}

	if blacklist != nil {
		if claims.ID == "" {
			return nil, fmt.Errorf("JWT 缺少 JTI (ID) 声明，无法检查黑名单")
		}
		isRevoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// 无法确认时拒绝
			return nil, fmt.Errorf("检查 Token 黑名单失败: %w", err)
		}
		if isRevoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}
