package auth

// Identity error codes shared by the API and its clients.
const (
	CodeEmailInUse      = "auth/email-already-in-use"
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeWeakPassword    = "auth/weak-password"
	CodeInvalidEmail    = "auth/invalid-email"
	CodeUnauthenticated = "auth/unauthenticated"
)
