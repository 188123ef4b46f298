package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Buddy   *BuddyHandler
}

// RegisterRoutes mounts the public auth routes and the authenticated /api/v1 routes.
func RegisterRoutes(r *mux.Router, h Handlers, authMw mux.MiddlewareFunc) {
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", h.Auth.SignUp).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMw)

	api.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", h.Auth.Session).Methods(http.MethodGet)

	api.HandleFunc("/profiles", h.Profile.List).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", h.Profile.Get).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", h.Profile.Put).Methods(http.MethodPut)
	api.HandleFunc("/profiles/{id}", h.Profile.Patch).Methods(http.MethodPatch)

	api.HandleFunc("/buddies", h.Buddy.ListBuddies).Methods(http.MethodGet)
	api.HandleFunc("/buddies/status/{id}", h.Buddy.Status).Methods(http.MethodGet)
	api.HandleFunc("/buddy-requests", h.Buddy.ListRequests).Methods(http.MethodGet)
	api.HandleFunc("/buddy-requests", h.Buddy.SendRequest).Methods(http.MethodPost)
	api.HandleFunc("/buddy-requests/{requesterID}/accept", h.Buddy.AcceptRequest).Methods(http.MethodPost)
	api.HandleFunc("/buddy-requests/{requesterID}/reject", h.Buddy.RejectRequest).Methods(http.MethodPost)
}
