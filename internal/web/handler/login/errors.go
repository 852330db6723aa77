// Package login provides the login form of the console.
//
// This file defines exported error values used throughout the login flow.
package login

import "errors"

// ErrInvalidFormData is returned when the submitted login form cannot be parsed.
var ErrInvalidFormData = errors.New("invalid form data")
