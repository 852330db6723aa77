// Package models contains database model definitions.
package models

import "time"

// Entry is one value of the client local key/value storage.
// A nil ExpiresAt never expires.
type Entry struct {
	ID        uint64 `gorm:"primaryKey"`
	Key       string `gorm:"column:entry_key;uniqueIndex;size:191"`
	Value     []byte
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// Expired reports whether e is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}
