package tasks

import "fmt"

// UnknownTaskError is returned when no task is registered under Name.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

// MissingCredentialError is returned by a task when a collaborator-specific
// secret, such as a verification service key, is absent for the network.
type MissingCredentialError struct {
	Credential string
	Network    string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing %s for network %q", e.Credential, e.Network)
}
