package main

import (
	"github.com/aretw0/statecraft/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a workflow locally",
	Long: `Loads a definition document into an in-memory engine, starts an instance and
executes the given actions in order. The resulting instance is rendered as markdown on a
terminal and as JSON otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actions, _ := cmd.Flags().GetStringArray("action")
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.Run(cmd.Context(), cmd.OutOrStdout(), args[0], actions, jsonMode)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("action", "a", nil, "Action to execute (repeatable, in order)")
	runCmd.Flags().Bool("json", false, "Print the result as JSON")
}
