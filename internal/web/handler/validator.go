package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed validation rule of a form.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message returns the text shown next to the form.
func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return e.Field + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field, e.Param)
	case "eqfield":
		return "Passwords do not match"
	default:
		return e.Field + " is invalid"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// Validate checks the validate tags of form and returns the failed rules in field order.
func Validate(form any) []FieldError {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []FieldError{{Field: "form", Tag: "invalid"}}
	}

	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}

	return out
}

// FirstMessage returns the message of the first failed rule or "".
func FirstMessage(errs []FieldError) string {
	if len(errs) == 0 {
		return ""
	}

	return errs[0].Message()
}
