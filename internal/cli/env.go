package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/tasks/builtin"
	"github.com/pendergraft/deployforge/internal/verification"
)

// environment is everything a command needs, assembled once per invocation.
type environment struct {
	settings    *config.Settings
	logger      *slog.Logger
	projectFile string // "" when no project file was found
	overrides   config.Overrides
	secrets     config.ChainSource
	store       *config.SecretStore
}

// loadSettings reads process settings and builds the logger.
func loadSettings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	if logLevel != "" {
		settings.Logging.Level = logLevel
	}
	return settings, setupLogger(settings.Logging, cmd.ErrOrStderr()), nil
}

// loadEnvironment reads settings, the project file and every secret source.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	env := &environment{settings: settings, logger: logger}

	path, err := projectFilePath()
	switch {
	case errors.Is(err, os.ErrNotExist) && cfgFile == "":
		logger.Debug("no project file found", "dir", projectDir)
	case err != nil:
		return nil, err
	default:
		overrides, err := config.LoadOverrides(path)
		if err != nil {
			return nil, err
		}
		env.projectFile = path
		env.overrides = overrides
		logger.Debug("loaded project file", "path", path)
	}

	if settings.Secrets.UseEnv {
		env.secrets = append(env.secrets, config.EnvSource{})
	}
	if settings.Secrets.EnvFile != "" {
		dotenv, err := config.LoadDotenv(resolvePath(settings.Secrets.EnvFile))
		if err != nil {
			return nil, err
		}
		env.secrets = append(env.secrets, dotenv)
	}
	store, err := config.OpenSecretStore(settings.Secrets.StorePath)
	if err != nil {
		return nil, err
	}
	env.store = store
	env.secrets = append(env.secrets, store)

	return env, nil
}

// assemble builds the immutable project config.
func (e *environment) assemble() (*config.Config, error) {
	return config.Assemble(config.DefaultSettings(), e.overrides, e.secrets)
}

// registry returns a registry seeded with the built-in tasks.
func (e *environment) registry() (*tasks.Registry, error) {
	deps := builtin.DefaultDeps()
	deps.VerifierOptions = []verification.Option{
		verification.WithMaxAttempts(e.settings.Verify.PollAttempts),
		verification.WithPollInterval(time.Duration(e.settings.Verify.PollIntervalSeconds) * time.Second),
	}

	r := tasks.NewRegistry()
	if err := builtin.RegisterAll(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}

// projectFilePath returns --config, or the first project file in --project-dir.
func projectFilePath() (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", fmt.Errorf("project file: %w", err)
		}
		return cfgFile, nil
	}
	return config.FindProjectFile(projectDir)
}

// resolvePath makes relative paths relative to the project dir.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
