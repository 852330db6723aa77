// Package db opens the gorm database backing the client local storage.
package db

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/db/dsn"
	"github.com/knowledgeai/knowledge-console/internal/db/models"
)

// Open connects to the configured storage and migrates the schema.
func Open(cfg *config.Storage) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.DriverPostgres:
		dialector = postgres.Open(dsn.Create(cfg))
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o700); err != nil { //nolint: mnd
				return nil, errors.Wrap(err, "failed to create storage directory")
			}
		}

		dialector = sqlite.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s storage", cfg.Driver)
	}

	if err = db.AutoMigrate(&models.Entry{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate storage")
	}

	return db, nil
}
