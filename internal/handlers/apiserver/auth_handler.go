package apiserver

import (
	"log"
	"net/http"
	"strings"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/middleware"
	"gym-buddy/internal/services"
)

// AuthHandler 封装了认证相关的 HTTP 处理器方法。
type AuthHandler struct {
	AuthService services.AuthService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

// SignUp 处理 POST /auth/signup。
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req imtypes.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "请求体无效", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSONError(w, "邮箱和密码不能为空", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	account, token, err := h.AuthService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, imtypes.AuthResponse{Token: token, Account: account.Info()})
}

// Login 处理 POST /auth/login。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req imtypes.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "请求体无效", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeJSONError(w, "邮箱和密码不能为空", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	account, token, err := h.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, imtypes.AuthResponse{Token: token, Account: account.Info()})
}

// Logout 处理用户登出请求，将当前 Token 加入黑名单。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", auth.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}
	if err := h.AuthService.SignOut(r.Context(), claims); err != nil {
		log.Printf("登出失败 (账号 %s): %v", claims.AccountID, err)
		writeJSONError(w, "登出过程中发生内部错误", imtypes.CodeInternal, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "登出成功"})
}

// Session 返回令牌对应的账号。
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", auth.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}
	account, err := h.AuthService.Account(r.Context(), accountID)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, account.Info())
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	code := services.AuthErrorCode(err)
	switch code {
	case auth.CodeEmailInUse:
		writeJSONError(w, err.Error(), code, http.StatusConflict)
	case auth.CodeInvalidEmail, auth.CodeWeakPassword:
		writeJSONError(w, err.Error(), code, http.StatusBadRequest)
	case auth.CodeUserNotFound, auth.CodeWrongPassword:
		writeJSONError(w, err.Error(), code, http.StatusUnauthorized)
	default:
		log.Printf("认证请求失败: %v", err)
		writeJSONError(w, "认证失败", imtypes.CodeInternal, http.StatusInternalServerError)
	}
}
