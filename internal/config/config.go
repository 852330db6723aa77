// Package config reads the console configuration from etc/main.toml.
package config

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON overrides parts of the file configuration with a JSON document.
	EnvConfigJSON = "KNOWLEDGE_CONSOLE_CONFIG_JSON"

	// DefaultPath is used when ReadConfig gets an empty path.
	DefaultPath = "./etc/"

	// DefaultTokenKey is the well-known storage key of the bearer token.
	DefaultTokenKey = "token"

	// Storage drivers.
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory" // token is not persisted across restarts

	encryptionKeyLen   = 32
	defaultAPITimeout  = 30 * time.Second
	defaultShutDownSec = 5
)

// ReadConfig reads main.toml below path, applies the JSON env override and validates the result.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if override := os.Getenv(EnvConfigJSON); override != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, override); err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig renders c as TOML.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON renders c as indented JSON.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the console can not run without and fills defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.API.URL == "" {
		return errors.Wrap(ErrEmptyAPIURL, invalidErrMessage)
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverSQLite
	case DriverSQLite, DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return errors.Wrapf(ErrUnknownStorageDriver, "%s: %q", invalidErrMessage, c.Storage.Driver)
	}

	if c.Storage.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Storage.EncryptionKey)
		if err != nil || len(key) != encryptionKeyLen {
			return errors.Wrap(ErrInvalidEncryptionKey, invalidErrMessage)
		}
	}

	if c.Storage.TokenKey == "" {
		c.Storage.TokenKey = DefaultTokenKey
	}

	if c.API.Timeout == 0 {
		c.API.Timeout = defaultAPITimeout
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownSec
	}

	return nil
}
