package notifyserver

import (
	"log"
	"net/http"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/config"
	"gym-buddy/internal/middleware"
	ws "gym-buddy/internal/websocket"
)

// WebSocketHandler 负责处理推送通道的 WebSocket 连接请求。
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, blacklist: blacklist, cfg: cfg}
}

// ServeWS 校验令牌后把 HTTP 连接升级为 WebSocket。
// 浏览器无法为 WebSocket 设置请求头，所以令牌也可以放在 token 查询参数中。
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("WebSocket 连接尝试失败：令牌无效: %v", err)
		http.Error(w, "令牌无效", http.StatusUnauthorized)
		return
	}

	ws.ServeWs(h.hub, claims.AccountID, w, r, h.cfg.WebSocket)
}
