// Package tokenstore persists the bearer token in client local storage.
//
// The token lives under one well-known key of a fiber.Storage compatible
// key/value backend. When an encryption key is configured the value is
// sealed with XChaCha20-Poly1305 before it reaches the backend.
package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// Storage is the key/value capability the token is kept in.
// Get returns nil, nil for absent keys.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// Store reads and writes the persisted bearer token.
type Store struct {
	storage Storage
	key     string
	aead    cipher.AEAD
}

// Option configures a Store.
type Option func(*Store) error

// WithEncryptionKey seals the token at rest with the base64 encoded 32 byte key.
// An empty key keeps the token in plaintext.
func WithEncryptionKey(b64Key string) Option {
	return func(s *Store) error {
		if b64Key == "" {
			return nil
		}

		key, err := base64.StdEncoding.DecodeString(b64Key)
		if err != nil {
			return errors.Wrap(ErrInvalidKey, err.Error())
		}

		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return errors.Wrap(ErrInvalidKey, err.Error())
		}

		s.aead = aead

		return nil
	}
}

// New returns a Store keeping the token under key in storage.
func New(storage Storage, key string, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	s := &Store{storage: storage, key: key}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Load returns the persisted token or "" when none is stored.
func (s *Store) Load() (string, error) {
	raw, err := s.storage.Get(s.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to read token")
	}

	if len(raw) == 0 {
		return "", nil
	}

	if s.aead == nil {
		return string(raw), nil
	}

	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCorrupt
	}

	plain, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(s.key))
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, err.Error())
	}

	return string(plain), nil
}

// Save replaces the persisted token. Saving "" clears it.
func (s *Store) Save(token string) error {
	if token == "" {
		return s.Clear()
	}

	value := []byte(token)

	if s.aead != nil {
		nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
		if _, err := rand.Read(nonce); err != nil {
			return errors.Wrap(err, "failed to create nonce")
		}

		value = s.aead.Seal(nonce, nonce, value, []byte(s.key))
	}

	return errors.Wrap(s.storage.Set(s.key, value, 0), "failed to write token")
}

// Clear removes the persisted token.
func (s *Store) Clear() error {
	return errors.Wrap(s.storage.Delete(s.key), "failed to delete token")
}
