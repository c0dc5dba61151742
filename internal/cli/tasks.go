package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func createTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			registry, err := env.registry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tNETWORK\tDESCRIPTION")
			for _, d := range registry.List() {
				network := "-"
				if d.RequiresNetwork {
					network = "required"
				}
				name := d.Name
				if d.Usage != "" {
					name += " " + d.Usage
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, network, d.Description)
			}
			return w.Flush()
		},
	}
}
