package kv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/knowledgeai/knowledge-console/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.Entry{}), "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&models.Entry{Key: "token", Value: []byte("abc")}).Error)
	require.NoError(t, db.Create(&models.Entry{Key: "stale", Value: []byte("x"), ExpiresAt: &past}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		key           string
		expectedError error
		expectedValue []byte
	}{
		{name: "nil database", dbParam: nil, key: "token", expectedError: ErrDBNil},
		{name: "empty key", dbParam: db, key: "", expectedError: ErrKeyEmpty},
		{name: "missing key", dbParam: db, key: "nope", expectedError: ErrKeyNotFound},
		{name: "expired key", dbParam: db, key: "stale", expectedError: ErrKeyNotFound},
		{name: "found", dbParam: db, key: "token", expectedValue: []byte("abc")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := Get(tc.dbParam, tc.key)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, entry)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, entry.Value)
		})
	}

	var count int64
	db.Model(&models.Entry{}).Where(keyQueryPattern, "stale").Count(&count)
	assert.Zero(t, count, "expired entry should be purged on read")
}

func TestSetReplaces(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "token", []byte("first"), 0)
	require.NoError(t, err)

	_, err = Set(db, "token", []byte("second"), time.Hour)
	require.NoError(t, err)

	entry, err := Get(db, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), entry.Value)
	require.NotNil(t, entry.ExpiresAt)

	var count int64
	db.Model(&models.Entry{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = Set(db, "", []byte("x"), 0)
	assert.ErrorIs(t, err, ErrKeyEmpty)
}

func TestDeleteAndReset(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "a", []byte("1"), 0)
	require.NoError(t, err)
	_, err = Set(db, "b", []byte("2"), 0)
	require.NoError(t, err)

	require.NoError(t, Delete(db, "a"))
	require.NoError(t, Delete(db, "a"), "deleting twice is fine")

	_, err = Get(db, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, Reset(db))

	_, err = Get(db, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStorage(t *testing.T) {
	s := NewStorage(setupTestDB(t))

	val, err := s.Get("token")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("token", []byte("abc"), 0))

	val, err = s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), val)

	require.NoError(t, s.Delete("token"))

	val, err = s.Get("token")
	require.NoError(t, err)
	assert.Nil(t, val)
}
