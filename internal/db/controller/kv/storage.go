package kv

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Storage adapts the gorm backed key/value table to fiber.Storage, so the
// token store can run on it or on any other fiber storage driver.
type Storage struct {
	db *gorm.DB
}

var _ fiber.Storage = (*Storage)(nil)

// NewStorage returns a Storage on db.
func NewStorage(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

// Get returns nil, nil for absent keys as fiber storage drivers do.
func (s *Storage) Get(key string) ([]byte, error) {
	entry, err := Get(s.db, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return entry.Value, nil
}

// Set stores val under key.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	_, err := Set(s.db, key, val, exp)
	return err
}

// Delete removes key.
func (s *Storage) Delete(key string) error {
	return Delete(s.db, key)
}

// Reset removes all keys.
func (s *Storage) Reset() error {
	return Reset(s.db)
}

// Close closes the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
