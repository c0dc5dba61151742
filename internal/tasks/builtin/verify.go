package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/pendergraft/deployforge/internal/observability/metrics"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/validation"
	"github.com/pendergraft/deployforge/internal/verification"
)

func verify(deps Deps) tasks.Handler {
	return func(ctx context.Context, args []string, ec *tasks.ExecutionContext) (*tasks.Result, error) {
		if len(args) < 2 || len(args) > 3 {
			return nil, errors.New("usage: verify <contract> <address> [constructor-args-hex]")
		}
		contract, address := args[0], args[1]
		constructorArgs := ""
		if len(args) == 3 {
			constructorArgs = args[2]
		}

		// Checked first: no network call is made without a key.
		apiKey, ok := ec.Config.VerificationKey(ec.Network)
		if !ok {
			return nil, &tasks.MissingCredentialError{Credential: "verification api key", Network: ec.Network}
		}

		if err := validation.ValidateAddress(address); err != nil {
			return nil, err
		}
		if constructorArgs != "" {
			if err := validation.ValidateHexData(constructorArgs); err != nil {
				return nil, fmt.Errorf("constructor args: %w", err)
			}
		}

		builder, err := deps.DetectBuilder(ec.ProjectDir)
		if err != nil {
			return nil, err
		}
		artifact, err := builder.FindArtifact(ec.ProjectDir, contract)
		if err != nil {
			return nil, err
		}
		input, err := builder.GetVerificationInput(ec.ProjectDir, artifact.Name, artifact.EVM.SourcePath)
		if err != nil {
			return nil, err
		}

		profile, _ := ec.Config.Network(ec.Network)
		client, err := deps.Dial(ctx, profile.RPCURL)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		chainID := profile.ChainID
		if chainID == 0 {
			if chainID, err = client.ChainID(ctx); err != nil {
				return nil, err
			}
		} else if err := client.CheckChainID(ctx, chainID); err != nil {
			return nil, err
		}

		match, err := client.VerifyDeployment(ctx, address, artifact, nil)
		if err != nil {
			return nil, err
		}
		if !match.Match {
			return nil, fmt.Errorf("%s at %s: %s", artifact.QualifiedName(), address, match.Message)
		}
		ec.Logger.Info("on-chain code matches artifact", "match", match.MatchType)

		verifier := verification.New(ec.Config.VerificationURL(), apiKey, deps.VerifierOptions...)
		verdict, err := verifier.Verify(ctx, verification.Submission{
			ChainID:         chainID,
			Address:         address,
			ContractName:    artifact.QualifiedName(),
			CompilerVersion: input.SolcLongVersion,
			StandardJSON:    input.StandardJSON,
			ConstructorArgs: constructorArgs,
		})
		if err != nil {
			metrics.VerificationRequest(ec.Network, "error")
			return nil, err
		}
		metrics.VerificationRequest(ec.Network, string(verdict.Status))

		if !verdict.Verified() {
			return nil, fmt.Errorf("verification of %s failed: %s", artifact.QualifiedName(), verdict.Message)
		}

		fmt.Fprintf(ec.Out, "Verified %s at %s (%s)\n", artifact.QualifiedName(), address, verdict.Status)
		return &tasks.Result{Values: []string{address, string(verdict.Status)}}, nil
	}
}
