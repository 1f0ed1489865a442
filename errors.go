package interceptor

import "fmt"

// ConfigError reports a malformed pipeline configuration: a missing required
// field, an unsupported exclusion spec shape, or a path collision between
// the callback and logout endpoints. It is fatal at setup time, never
// per-request.
type ConfigError struct {
	Field  string // configuration field at fault
	Reason string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StateMismatchError reports that the state parameter returned by the
// authorization server does not match the value stored in the session.
// This is a CSRF security failure: callback processing must abort and the
// error is never recoverable within the pipeline.
//
// The mismatching values are deliberately not included in the message so
// they cannot leak through error reporting.
type StateMismatchError struct{}

// Error implements the error interface
func (e *StateMismatchError) Error() string {
	return "oauth2 callback: state parameter mismatch"
}
