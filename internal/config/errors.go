package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports malformed or missing grading input. It is the
// only error that stops a grading run before it starts.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func Wrap(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigurationError{Field: field, Err: err}
}

func Errorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Err: errors.Errorf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
