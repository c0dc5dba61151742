package builtin

import (
	"context"
	"fmt"

	"github.com/pendergraft/deployforge/internal/chains/evm"
	"github.com/pendergraft/deployforge/internal/tasks"
)

func balances(deps Deps) tasks.Handler {
	return func(ctx context.Context, _ []string, ec *tasks.ExecutionContext) (*tasks.Result, error) {
		profile, _ := ec.Config.Network(ec.Network)
		signers, err := ec.ActiveSigners()
		if err != nil {
			return nil, err
		}

		client, err := deps.Dial(ctx, profile.RPCURL)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		if err := client.CheckChainID(ctx, profile.ChainID); err != nil {
			return nil, err
		}

		values := make([]string, 0, len(signers))
		for _, s := range signers {
			bal, err := client.BalanceAt(ctx, s.Address())
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(ec.Out, "%s\t%s\n", s.Address().Hex(), evm.FormatEther(bal))
			values = append(values, s.Address().Hex()+"="+bal.String())
		}
		return &tasks.Result{Values: values}, nil
	}
}
