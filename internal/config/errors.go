package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.url is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrEmptyAPIURL error if config api.url is empty.
	ErrEmptyAPIURL = errors.New("config api.url can not be empty")

	// ErrUnknownStorageDriver error if storage.driver is not one of sqlite, mysql, postgres, memory.
	ErrUnknownStorageDriver = errors.New("config storage.driver is unknown")

	// ErrInvalidEncryptionKey error if storage.encryptionKey is not a base64 encoded 32 byte key.
	ErrInvalidEncryptionKey = errors.New("config storage.encryptionKey must be a base64 encoded 32 byte key")
)
