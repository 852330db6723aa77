package auth

import (
	"errors"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/session"
)

var (
	// ErrInvalidCredentials is returned when the API rejected email and password.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrNoToken is returned when a successful credential answer carries no bearer token.
	ErrNoToken = errors.New("credential answer without access token")

	// ErrNoIdentity is returned when a successful credential answer carries no user.
	ErrNoIdentity = errors.New("credential answer without user")
)

// Message returns the text shown to the user for an error of a credential operation.
func Message(err error) string {
	var apiErr *api.Error

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password"
	case errors.Is(err, session.ErrStale), errors.Is(err, session.ErrRevoked):
		return "You signed in or out elsewhere meanwhile, please try again"
	case errors.Is(err, api.ErrTransport):
		return "The server could not be reached, please try again"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return "Something went wrong, please try again"
	}
}
