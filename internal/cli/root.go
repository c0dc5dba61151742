package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	networkFlag string
	projectDir  string
	logLevel    string
)

// Execute runs the CLI
func Execute(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deployforge",
		Short: "Smart contract build and deployment task runner",
		Long: `deployforge runs named deployment tasks (compile, verify, accounts, ...)
against the networks declared in deployforge.toml.

Secrets such as RPC URLs and private keys are never written to the project
file: it names the secret, and the value is looked up in the environment,
the project's .env file or ~/.deployforge/secrets.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "project file (default: deployforge.toml or forge-deploy.toml)")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default: default_network from the project file)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "project root")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")

	// Add subcommands
	rootCmd.AddCommand(createRunCmd())
	rootCmd.AddCommand(createTasksCmd())
	rootCmd.AddCommand(createConfigCmd())
	rootCmd.AddCommand(createSecretsCmd())
	rootCmd.AddCommand(createHistoryCmd())
	rootCmd.AddCommand(createVersionCmd(version))

	return rootCmd
}

func createVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "deployforge "+version)
		},
	}
}
