package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pendergraft/deployforge/internal/config"
)

func createSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secrets in ~/.deployforge/secrets.yaml",
		Long: `Manage the user secrets file.

Secrets stored here are used when neither the environment nor the project's
.env file defines them. The file is written with owner-only permissions.`,
	}

	cmd.AddCommand(createSecretsSetCmd())
	cmd.AddCommand(createSecretsUnsetCmd())
	cmd.AddCommand(createSecretsListCmd())

	return cmd
}

func createSecretsSetCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set <NAME>",
		Short: "Store a secret",
		Long: `Store a secret value under NAME.

EXAMPLES:
  # Interactive (prompts without echo)
  deployforge secrets set DEPLOYER_PRIVATE_KEY

  # Non-interactive (for CI)
  deployforge secrets set POLYGONSCAN_API_KEY --value "$KEY"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecretsSet(cmd, args[0], value)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "secret value (prompts if not provided)")

	return cmd
}

func createSecretsUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <NAME>",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSecretStore(cmd)
			if err != nil {
				return err
			}
			if !store.Unset(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "No secret named %s\n", args[0])
				return nil
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func createSecretsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored secrets (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSecretStore(cmd)
			if err != nil {
				return err
			}
			names := store.Names()
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No secrets stored in %s\n", store.Path())
				return nil
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, maskSecret(store.Secrets[name]))
			}
			return nil
		},
	}
}

func openSecretStore(cmd *cobra.Command) (*config.SecretStore, error) {
	settings, _, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return config.OpenSecretStore(settings.Secrets.StorePath)
}

func runSecretsSet(cmd *cobra.Command, name, value string) error {
	if value == "" {
		var err error
		value, err = promptSecret(cmd, name)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value cannot be empty")
	}

	store, err := openSecretStore(cmd)
	if err != nil {
		return err
	}
	store.Set(name, value)
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in %s\n", name, store.Path())
	return nil
}

// promptSecret reads a value without echo when stdin is a terminal.
func promptSecret(cmd *cobra.Command, name string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Enter value for %s: ", name)

	stdinFd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(stdinFd) {
		b, err := term.ReadPassword(stdinFd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(b), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
