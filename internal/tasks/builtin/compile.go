package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/pendergraft/deployforge/internal/chains"
	"github.com/pendergraft/deployforge/internal/observability/metrics"
	"github.com/pendergraft/deployforge/internal/tasks"
)

func compile(deps Deps) tasks.Handler {
	return func(ctx context.Context, _ []string, ec *tasks.ExecutionContext) (*tasks.Result, error) {
		builder, err := deps.DetectBuilder(ec.ProjectDir)
		if err != nil {
			return nil, err
		}

		settings := ec.Config.Compiler()
		ec.Logger.Info("compiling",
			"builder", builder.Name(),
			"solc", settings.LanguageVersion,
			"optimizer", settings.Optimizer.Enabled,
			"runs", settings.Optimizer.Runs,
		)

		if err := builder.Compile(ctx, ec.ProjectDir, settings); err != nil {
			metrics.Compile("error")
			return nil, err
		}
		metrics.Compile("ok")

		paths, err := builder.Discover(ec.ProjectDir, chains.DiscoverOptions{})
		if err != nil {
			return nil, err
		}

		var names []string
		for _, path := range paths {
			artifact, err := builder.Parse(path)
			if err != nil {
				ec.Logger.Debug("skipping artifact", "path", path, "error", err)
				continue
			}
			version := artifact.EVM.Compiler.Version
			if settings.LanguageVersion != "" && version != "" && !strings.HasPrefix(version, settings.LanguageVersion) {
				ec.Logger.Warn("artifact built with a different compiler",
					"contract", artifact.Name, "version", version, "configured", settings.LanguageVersion)
			}
			fmt.Fprintf(ec.Out, "%s\t%s\n", artifact.QualifiedName(), version)
			names = append(names, artifact.QualifiedName())
		}

		if len(names) == 0 {
			fmt.Fprintln(ec.Out, "No contracts found under src/.")
		}
		return &tasks.Result{Values: names}, nil
	}
}
