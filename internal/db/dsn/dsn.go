// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/knowledgeai/knowledge-console/internal/config"
)

// Create builds the Data Source Name for the configured storage driver.
// For sqlite the DSN is the database file path.
func Create(cfg *config.Storage) string {
	switch cfg.Driver {
	case config.DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
			cfg.Extras,
		)
	case config.DriverPostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
		)
		if cfg.Extras != "" {
			out += " " + cfg.Extras
		}

		return out
	default:
		return cfg.Path
	}
}
