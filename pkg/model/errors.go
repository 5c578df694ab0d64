package model

import "fmt"

// ConfigError rejects a parameter before any external tool is started.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CollaboratorError wraps a failure of an external tool or input reader.
type CollaboratorError struct {
	Tool string
	Op   string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
