package tokenstore

import "errors"

var (
	// ErrStorageNil is returned by New without a storage backend.
	ErrStorageNil = errors.New("token storage is nil")

	// ErrKeyEmpty is returned by New with an empty storage key.
	ErrKeyEmpty = errors.New("token storage key can not be empty")

	// ErrInvalidKey is returned for an encryption key that is not base64 encoded 32 bytes.
	ErrInvalidKey = errors.New("invalid token encryption key")

	// ErrCorrupt is returned when a sealed token can not be opened.
	ErrCorrupt = errors.New("persisted token is corrupt")
)
