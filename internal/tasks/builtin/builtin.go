// Package builtin registers the tasks every deployforge project has.
package builtin

import (
	"context"
	"fmt"

	"github.com/pendergraft/deployforge/internal/chains"
	"github.com/pendergraft/deployforge/internal/chains/evm"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/verification"
)

// Deps are the collaborators the built-in tasks talk to.
type Deps struct {
	DetectBuilder   func(dir string) (chains.Builder, error)
	Dial            func(ctx context.Context, rpcURL string) (*evm.Client, error)
	VerifierOptions []verification.Option
}

// DefaultDeps uses forge for compilation and go-ethereum for RPC.
func DefaultDeps() Deps {
	return Deps{
		DetectBuilder: evm.DetectBuilder,
		Dial:          evm.Dial,
	}
}

// Descriptors returns the built-in tasks in listing order.
func Descriptors(deps Deps) []tasks.Descriptor {
	if deps.DetectBuilder == nil {
		deps.DetectBuilder = evm.DetectBuilder
	}
	if deps.Dial == nil {
		deps.Dial = evm.Dial
	}

	return []tasks.Descriptor{
		{
			Name:        "accounts",
			Description: "Prints the list of accounts",
			Handler:     accounts,
		},
		{
			Name:        "networks",
			Description: "Reports which network profiles are usable",
			Handler:     networks,
		},
		{
			Name:            "balances",
			Description:     "Prints the balance of every account on the active network",
			RequiresNetwork: true,
			Handler:         balances(deps),
		},
		{
			Name:        "compile",
			Description: "Compiles the project with the configured compiler settings",
			Handler:     compile(deps),
		},
		{
			Name:            "verify",
			Description:     "Verifies a deployed contract's source with the network's block explorer",
			Usage:           "<contract> <address> [constructor-args-hex]",
			RequiresNetwork: true,
			Handler:         verify(deps),
		},
	}
}

// RegisterAll adds every built-in task to r.
func RegisterAll(r *tasks.Registry, deps Deps) error {
	for _, d := range Descriptors(deps) {
		if err := r.Register(d); err != nil {
			return fmt.Errorf("registering built-in tasks: %w", err)
		}
	}
	return nil
}
