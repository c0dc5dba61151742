package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/validation"
)

// Error kinds reported by Kind.
const (
	KindConfigAssembly    = "ConfigAssembly"
	KindUnknownTask       = "UnknownTask"
	KindDuplicateTask     = "DuplicateTask"
	KindUnusableNetwork   = "UnusableNetwork"
	KindMissingCredential = "MissingCredential"
	KindTaskFailed        = "TaskFailed"
)

// UnusableNetworkError is returned when a task requires a network whose
// profile is absent or incomplete.
type UnusableNetworkError struct {
	Network string
	// Missing lists the absent fields, e.g. "rpc endpoint", "credentials".
	Missing []string
	// Reason is set instead of Missing when the network could not be
	// checked at all.
	Reason string
}

func (e *UnusableNetworkError) Error() string {
	if e.Network == "" {
		return "no active network: " + e.Reason
	}
	if e.Reason != "" {
		return fmt.Sprintf("network %q is not usable: %s", e.Network, e.Reason)
	}
	return fmt.Sprintf("network %q is not usable: missing %s", e.Network, strings.Join(e.Missing, " and "))
}

func unusableFromFinding(f validation.Finding) *UnusableNetworkError {
	return &UnusableNetworkError{Network: f.Network, Missing: f.Missing()}
}

// Kind maps err to the name of its error kind. It returns "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var (
		assembly   *config.AssemblyError
		unknown    *tasks.UnknownTaskError
		duplicate  *tasks.DuplicateTaskError
		unusable   *UnusableNetworkError
		credential *tasks.MissingCredentialError
	)
	switch {
	case errors.As(err, &assembly):
		return KindConfigAssembly
	case errors.As(err, &unknown):
		return KindUnknownTask
	case errors.As(err, &duplicate):
		return KindDuplicateTask
	case errors.As(err, &unusable):
		return KindUnusableNetwork
	case errors.As(err, &credential):
		return KindMissingCredential
	default:
		return KindTaskFailed
	}
}
