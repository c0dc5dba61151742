package builtin

import (
	"context"
	"fmt"

	"github.com/pendergraft/deployforge/internal/signer"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/validation"
)

func accounts(_ context.Context, _ []string, ec *tasks.ExecutionContext) (*tasks.Result, error) {
	signers, err := ec.ActiveSigners()
	if err != nil {
		return nil, err
	}

	addresses := signer.Addresses(signers)
	for _, addr := range addresses {
		fmt.Fprintln(ec.Out, addr)
	}
	return &tasks.Result{Values: addresses}, nil
}

func networks(_ context.Context, _ []string, ec *tasks.ExecutionContext) (*tasks.Result, error) {
	report := validation.ValidateProfiles(ec.Config)
	if len(report.Findings) == 0 {
		fmt.Fprintln(ec.Out, "No networks declared.")
		return &tasks.Result{}, nil
	}

	fmt.Fprint(ec.Out, report.String())
	values := make([]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		values = append(values, f.Network+"="+string(f.Status))
	}
	return &tasks.Result{Values: values}, nil
}
