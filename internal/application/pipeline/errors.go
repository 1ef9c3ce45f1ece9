package pipeline

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks problems detected before any workspace exists.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError is a rejected request: a bad tool name, a missing or
// conflicting input, a path that is not a directory.
type ConfigurationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

func invalid(field, msg string, err error) error {
	return &ConfigurationError{Field: field, Msg: msg, Err: err}
}
