package config

import (
	"time"

	"github.com/knowledgeai/knowledge-console/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool   `mapstructure:"devMode"` // reload templates from disk, insecure cookies
	Title     string `mapstructure:"title"`
	Log       logger.Log
	Webserver Webserver `mapstructure:"webserver"`
	API       API       `mapstructure:"api"`
	Storage   Storage   `mapstructure:"storage"`
}

// Webserver implements the local web console settings.
type Webserver struct {
	BrowseStatic   bool   `mapstructure:"browseStatic"`   // static file browsing, development only
	DisableRecover bool   `mapstructure:"disableRecover"` // disable recover middleware
	Host           string `mapstructure:"host"`           // listen host, empty means all interfaces
	Port           int    `mapstructure:"port"`           // listening port
	ShutDownTime   int    `mapstructure:"shutDownTime"`   // seconds to wait on shutdown
	URL            string `mapstructure:"url"`            // public base url of the console
}

// API configures the remote Knowledge API.
type API struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"userAgent"`

	// WaitForBootstrap holds outgoing requests until the session left the
	// resolving state. Off by default: requests may leave without a token
	// while bootstrap is still running.
	WaitForBootstrap bool `mapstructure:"waitForBootstrap"`
}

// Storage configures the client local key/value storage holding the bearer token.
type Storage struct {
	Driver string `mapstructure:"driver"` // sqlite (default), mysql, postgres or memory
	Path   string `mapstructure:"path"`   // sqlite database file

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Extras   string `mapstructure:"extras"`

	TokenKey      string `mapstructure:"tokenKey"`      // key the bearer token is stored under
	EncryptionKey string `mapstructure:"encryptionKey"` // base64 32 byte key, empty stores plaintext
}
