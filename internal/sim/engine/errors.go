package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid or inconsistent configuration field. It is
// returned before any episode state is built, never partially applied.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func configErrf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ActionError reports malformed action input to Step. The step mutates no
// state before returning it.
type ActionError struct {
	Agent  int // offending agent index, -1 for a joint-input problem
	Reason string
}

func (e *ActionError) Error() string {
	if e.Agent < 0 {
		return "actions: " + e.Reason
	}
	return fmt.Sprintf("actions: agent %d: %s", e.Agent, e.Reason)
}

// Usage-contract violations. Both leave engine state untouched.
var (
	ErrNotReady   = errors.New("simulation not reset")
	ErrTerminated = errors.New("episode terminated; reset required")
)
