package config

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is one problem with one setting. Value is empty for secrets.
type FieldError struct {
	Field  string `json:"field"`
	EnvVar string `json:"env_var,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	name := e.Field
	if e.EnvVar != "" {
		name = fmt.Sprintf("%s (%s)", e.Field, e.EnvVar)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %s, got %q", name, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s", name, e.Reason)
}

// ConfigurationError aggregates every problem found while resolving settings.
// It is fatal: the process must not serve traffic after receiving one.
type ConfigurationError struct {
	Problems []FieldError
}

func (e *ConfigurationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Fields lists the names of the offending settings.
func (e *ConfigurationError) Fields() []string {
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Field)
	}
	return out
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
