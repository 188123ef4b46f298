package session

import (
	"errors"

	"gym-buddy/internal/auth"
)

// CodedError is an error carrying a machine readable code, such as the
// errors returned by the API client.
type CodedError interface {
	error
	ErrorCode() string
}

var authMessages = map[string]string{
	auth.CodeEmailInUse:    "This email is already in use. Please use a different email or log in.",
	auth.CodeUserNotFound:  "No user found with this email. Please check your email or sign up.",
	auth.CodeWrongPassword: "Incorrect password. Please try again.",
	auth.CodeWeakPassword:  "Password should be at least 6 characters long.",
	auth.CodeInvalidEmail:  "Please enter a valid email address.",
}

// AuthErrorMessage turns an authentication failure into a message for the user.
func AuthErrorMessage(err error) string {
	if err == nil {
		return "An error occurred. Please try again."
	}
	var coded CodedError
	if errors.As(err, &coded) {
		if msg, ok := authMessages[coded.ErrorCode()]; ok {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An error occurred. Please try again."
}
