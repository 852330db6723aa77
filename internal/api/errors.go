package api

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrTransport is returned when the API could not be reached or answered garbage.
	ErrTransport = errors.New("knowledge api is unreachable")

	// ErrEmptyBaseURL is returned by New without an API url.
	ErrEmptyBaseURL = errors.New("knowledge api url is empty")

	// ErrSessionNil is returned by New without a session.
	ErrSessionNil = errors.New("session is nil")
)

// Error is a non 2xx answer of the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("knowledge api: %d %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err or 0 when err is not an *Error.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
