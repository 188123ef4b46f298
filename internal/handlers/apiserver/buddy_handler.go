package apiserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/middleware"
	"gym-buddy/internal/services"
)

// BuddyHandler handles HTTP requests related to buddies and buddy requests.
type BuddyHandler struct {
	buddyService services.BuddyService
}

// NewBuddyHandler creates a new BuddyHandler.
func NewBuddyHandler(bs services.BuddyService) *BuddyHandler {
	return &BuddyHandler{buddyService: bs}
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", auth.CodeUnauthenticated, http.StatusUnauthorized)
	}
	return id, ok
}

// ListBuddies handles GET /api/v1/buddies
func (h *BuddyHandler) ListBuddies(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}
	buddies, err := h.buddyService.ListBuddies(r.Context(), selfID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buddies)
}

// ListRequests handles GET /api/v1/buddy-requests?direction=received|sent
func (h *BuddyHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}

	list := h.buddyService.ListReceivedRequests
	switch strings.ToLower(r.URL.Query().Get("direction")) {
	case "", "received":
	case "sent":
		list = h.buddyService.ListSentRequests
	default:
		writeJSONError(w, "direction 只能是 received 或 sent", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	profiles, err := list(r.Context(), selfID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profiles)
}

// SendRequest handles POST /api/v1/buddy-requests
func (h *BuddyHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}

	var payload imtypes.SendBuddyRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSONError(w, "请求体无效", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	if payload.RecipientID == "" {
		writeJSONError(w, "缺少接收者ID (recipientId)", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	if err := h.buddyService.SendRequest(r.Context(), selfID, payload.RecipientID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "好友请求已发送"})
}

// AcceptRequest handles POST /api/v1/buddy-requests/{requesterID}/accept
func (h *BuddyHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.buddyService.AcceptRequest(r.Context(), selfID, mux.Vars(r)["requesterID"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "好友请求已接受"})
}

// RejectRequest handles POST /api/v1/buddy-requests/{requesterID}/reject
func (h *BuddyHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.buddyService.RejectRequest(r.Context(), selfID, mux.Vars(r)["requesterID"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "好友请求已拒绝"})
}

// Status handles GET /api/v1/buddies/status/{id}
func (h *BuddyHandler) Status(w http.ResponseWriter, r *http.Request) {
	selfID, ok := callerID(w, r)
	if !ok {
		return
	}
	status, err := h.buddyService.Status(r.Context(), selfID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, imtypes.StatusResponse{Status: status})
}
