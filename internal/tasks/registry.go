// Package tasks defines named, independently invocable units of work and the
// registry they are looked up in.
package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/signer"
)

// Handler runs a task. args are the raw arguments following the task name.
type Handler func(ctx context.Context, args []string, ec *ExecutionContext) (*Result, error)

// Descriptor describes a registered task.
type Descriptor struct {
	Name        string
	Description string
	Usage       string // argument synopsis, e.g. "<contract> <address>"

	// RequiresNetwork makes the dispatcher check that the active network
	// profile is usable before the handler runs.
	RequiresNetwork bool

	Handler Handler
}

// Result is the structured output of a task.
type Result struct {
	Values []string
}

// ExecutionContext is built fresh for every dispatch.
type ExecutionContext struct {
	Config     *config.Config
	Network    string
	Signers    signer.Provider
	Out        io.Writer
	Logger     *slog.Logger
	ProjectDir string
}

// ActiveSigners returns the signers of the active network.
func (ec *ExecutionContext) ActiveSigners() ([]signer.Signer, error) {
	if ec.Network == "" {
		return nil, errors.New("no network selected (use --network or set default_network)")
	}
	return ec.Signers(ec.Network)
}

// Registry maps task names to descriptors. Tasks are registered during start-up;
// afterwards the registry is only read and may be shared without locking.
type Registry struct {
	tasks map[string]Descriptor
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]Descriptor),
	}
}

// Register adds a task. The first registration of a name wins; later ones fail
// with *DuplicateTaskError.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("task name is required")
	}
	if d.Handler == nil {
		return errors.New("task " + d.Name + ": handler is required")
	}
	if _, exists := r.tasks[d.Name]; exists {
		return &DuplicateTaskError{Name: d.Name}
	}
	r.tasks[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Resolve looks up a task by name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.tasks[name]
	if !ok {
		return Descriptor{}, &UnknownTaskError{Name: name}
	}
	return d, nil
}

// List returns all tasks in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}
