package foundry

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pendergraft/deployforge/internal/config"
)

// Runner executes an external command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// CompileEnv maps compiler settings to the environment forge reads.
func CompileEnv(settings config.CompilerSettings) []string {
	env := []string{
		"FOUNDRY_OPTIMIZER=" + strconv.FormatBool(settings.Optimizer.Enabled),
		"FOUNDRY_OPTIMIZER_RUNS=" + strconv.Itoa(settings.Optimizer.Runs),
	}
	if settings.LanguageVersion != "" {
		env = append(env, "FOUNDRY_SOLC_VERSION="+strings.TrimPrefix(settings.LanguageVersion, "v"))
	}
	return env
}

// Compile runs forge build with build-info output so artifacts can later be
// verified.
func (b *Builder) Compile(ctx context.Context, dir string, settings config.CompilerSettings) error {
	out, err := b.runner.Run(ctx, dir, CompileEnv(settings), "forge", "build", "--build-info")
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("forge build: %w", err)
		}
		return fmt.Errorf("forge build: %w\n%s", err, msg)
	}
	return nil
}
