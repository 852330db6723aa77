// Package kv provides key/value operations on the client local storage.
package kv

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/knowledgeai/knowledge-console/internal/db/models"
)

const (
	keyQueryPattern = "entry_key = ?"
)

var (
	// ErrKeyNotFound is returned when a key is absent or expired.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyEmpty is returned for operations with an empty key.
	ErrKeyEmpty = errors.New("key cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get returns the live entry stored under key. Expired entries are removed.
func Get(db *gorm.DB, key string) (*models.Entry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	var entry models.Entry

	result := db.Where(keyQueryPattern, key).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}

		return nil, result.Error
	}

	if entry.Expired(time.Now()) {
		_ = Delete(db, key)

		return nil, ErrKeyNotFound
	}

	return &entry, nil
}

// Set creates or replaces the value under key. A zero exp never expires.
func Set(db *gorm.DB, key string, value []byte, exp time.Duration) (*models.Entry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrKeyEmpty
	}

	entry := &models.Entry{Key: key, Value: value}

	if exp > 0 {
		expiresAt := time.Now().Add(exp)
		entry.ExpiresAt = &expiresAt
	}

	// single statement upsert, the row is replaced atomically
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// Delete removes key. Deleting an absent key is not an error.
func Delete(db *gorm.DB, key string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrKeyEmpty
	}

	return db.Where(keyQueryPattern, key).Delete(&models.Entry{}).Error
}

// Reset removes every entry.
func Reset(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Entry{}).Error
}
