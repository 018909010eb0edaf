package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/statecraft/internal/cli"
	"github.com/aretw0/statecraft/internal/presentation/tui"
	"github.com/aretw0/statecraft/pkg/validation"
	"github.com/spf13/cobra"
)

// errInvalid is returned after the reasons have already been printed.
var errInvalid = errors.New("definition is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a definition document for consistency",
	Long: `Decodes a YAML or JSON definition document and reports every rule it breaks:
missing names, initial state count, and actions pointing at unknown states.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, res, err := cli.Validate(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.Valid {
			if err := cli.PrintMarkdown(out, tui.ErrorsMarkdown(validation.DefinitionSummary, res.Errors)); err != nil {
				return err
			}
			return errInvalid
		}
		fmt.Fprintf(out, "Definition '%s' is valid (%d states, %d actions)\n", spec.Name, len(spec.States), len(spec.Actions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
