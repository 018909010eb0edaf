package main

import (
	"fmt"

	"github.com/aretw0/statecraft/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph FILE",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of a definition document.
With --actions, the actions are replayed on a scratch instance and its path is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actions, _ := cmd.Flags().GetStringSlice("actions")
		out, err := cli.Graph(cmd.Context(), args[0], actions)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("actions", nil, "Comma-separated actions to replay before rendering")
}
