package config

import "fmt"

// AssemblyError reports structurally malformed defaults or overrides.
// Absent secrets never produce one.
type AssemblyError struct {
	Field  string
	Reason string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func assemblyErrorf(field, format string, args ...any) error {
	return &AssemblyError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
