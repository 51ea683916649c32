package workspace

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an invalid workspace configuration: a dangling or
// self-referencing dependency, or an unknown member in a filter. It is always
// fatal and always raised before any subprocess is spawned.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "workspace configuration error: " + e.Message
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// CycleError reports a dependency cycle among workspace members. Path holds
// the offending cycle, first member repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Path, " -> ")
}

// IsConfigError checks if the error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsCycleError checks if the error is or wraps a CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
