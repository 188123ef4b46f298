package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"gym-buddy/internal/auth"
	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/middleware"
	"gym-buddy/internal/models"
	"gym-buddy/internal/services"
)

// ProfileHandler 处理 /api/v1/profiles 下的资料文档请求。
type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(ps services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: ps}
}

// List handles GET /api/v1/profiles (full scan, filtering is done by clients).
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profiles)
}

// Get handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// Put handles PUT /api/v1/profiles/{id}: full replace of the caller's own document.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", auth.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var profile models.Profile
	if err := decodeJSON(r, &profile); err != nil {
		writeJSONError(w, "请求体无效", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	id := mux.Vars(r)["id"]
	if profile.ID != "" && profile.ID != id {
		writeJSONError(w, "资料 ID 与路径不一致", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}
	profile.ID = id
	if profile.Email == "" {
		profile.Email, _ = middleware.GetEmailFromContext(r.Context())
	}

	saved, err := h.profileService.Put(r.Context(), callerID, &profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, saved)
}

// Patch handles PATCH /api/v1/profiles/{id}
func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", auth.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var patch models.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSONError(w, "请求体无效", imtypes.CodeInvalidArgument, http.StatusBadRequest)
		return
	}

	updated, err := h.profileService.Patch(r.Context(), callerID, mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, updated)
}
