package session

import "errors"

var (
	// ErrStale is returned when a commit carries a ticket older than the latest one issued.
	ErrStale = errors.New("session operation superseded by a newer one")

	// ErrRevoked is returned when committing a token the API rejected before.
	ErrRevoked = errors.New("session token was rejected by the api")

	// ErrNoIdentity is returned when authenticating without an identity.
	ErrNoIdentity = errors.New("session identity is missing")

	// ErrNoToken is returned when authenticating without a bearer token.
	ErrNoToken = errors.New("session bearer token is missing")
)
