package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/validation"
)

const projectFileHeader = `# deployforge project configuration
#
# Values named *_secret or *_secrets are secret NAMES, not values. They are
# resolved from the environment, the project's .env file or
# ~/.deployforge/secrets.yaml (see 'deployforge secrets set').

`

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create project file",
		Long: `Create a deployforge.toml in the project directory.

The generated file targets Polygon: the RPC URL is read from POLYGON_RPC_URL,
the deployer key from DEPLOYER_PRIVATE_KEY and the PolygonScan key from
POLYGONSCAN_API_KEY. Solidity 0.8.6 is used with the optimizer on (200 runs).

EXAMPLES:
  deployforge config init
  deployforge config init --force
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing project file")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the assembled configuration",
		Long: `Display the assembled configuration and whether each network is usable.

Secret values are masked.

EXAMPLES:
  deployforge config show
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigInit(out io.Writer, force bool) error {
	configPath := filepath.Join(projectDir, config.ProjectFiles[0])

	for _, name := range config.ProjectFiles {
		existing := filepath.Join(projectDir, name)
		if _, err := os.Stat(existing); err == nil && !force {
			return fmt.Errorf("project file already exists at %s (use --force to overwrite)", existing)
		}
	}

	body, err := config.EncodeOverrides(config.StarterOverrides())
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, append([]byte(projectFileHeader), body...), 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Provide POLYGON_RPC_URL, DEPLOYER_PRIVATE_KEY and POLYGONSCAN_API_KEY")
	fmt.Fprintln(out, "     in .env or with 'deployforge secrets set <NAME>'")
	fmt.Fprintln(out, "  2. Run 'deployforge run networks' to check the profile")
	fmt.Fprintln(out, "  3. Run 'deployforge run accounts' to list the deployer accounts")

	return nil
}

func runConfigShow(cmd *cobra.Command) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cfg, err := env.assemble()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Project file:")
	if env.projectFile == "" {
		fmt.Fprintln(out, "   (not found, using defaults)")
	} else {
		fmt.Fprintf(out, "   %s\n", env.projectFile)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Secret sources (in order of precedence):")
	if env.settings.Secrets.UseEnv {
		fmt.Fprintln(out, "   environment")
	}
	if env.settings.Secrets.EnvFile != "" {
		fmt.Fprintf(out, "   %s\n", resolvePath(env.settings.Secrets.EnvFile))
	}
	fmt.Fprintf(out, "   %s\n", env.store.Path())
	fmt.Fprintln(out)

	compiler := cfg.Compiler()
	fmt.Fprintln(out, "Compiler:")
	version := compiler.LanguageVersion
	if version == "" {
		version = "(forge default)"
	}
	fmt.Fprintf(out, "   version:   %s\n", version)
	fmt.Fprintf(out, "   optimizer: %t (%d runs)\n", compiler.Optimizer.Enabled, compiler.Optimizer.Runs)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Networks:")
	profiles := cfg.Networks()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "   (none declared)")
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range profiles {
		finding := validation.CheckProfile(p)
		endpoint := "(missing)"
		if p.HasEndpoint() {
			endpoint = maskSecret(p.RPCURL)
		}
		marker := ""
		if p.Name == cfg.DefaultNetwork() {
			marker = " (default)"
		}
		verifyKey := "no verification key"
		if _, ok := cfg.VerificationKey(p.Name); ok {
			verifyKey = "verification key set"
		}
		fmt.Fprintf(w, "   %s%s\t%s\t%d account(s)\t%s\t%s\n",
			p.Name, marker, endpoint, len(p.Credentials), verifyKey, finding.Message())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Verification API: %s\n", cfg.VerificationURL())
	return nil
}
