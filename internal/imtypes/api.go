package imtypes

import "gym-buddy/internal/models"

// Error codes for non-identity failures. Identity failures use the auth/* codes.
const (
	CodeInvalidArgument    = "invalid-argument"
	CodeNotFound           = "not-found"
	CodePermissionDenied   = "permission-denied"
	CodeAlreadyExists      = "already-exists"
	CodeFailedPrecondition = "failed-precondition"
	CodeInternal           = "internal"
)

// ErrorResponse 是 API 错误响应的通用结构体。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse 是注册/登录成功后返回的结构体。
type AuthResponse struct {
	Token   string             `json:"token"`
	Account models.AccountInfo `json:"account"`
}

type SendBuddyRequestPayload struct {
	RecipientID string `json:"recipientId"`
}

type StatusResponse struct {
	Status models.RelationshipStatus `json:"status"`
}
