package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sharecheck/internal/cli/output"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var matrix, filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cases of a matrix without running them",
		Long: `List the cases of the built-in matrix, or of the YAML matrix named by
--matrix, with their setup steps, the step under test and the expected code.

No configuration or appliance is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := newPrinter(cmd, flags)
			if err != nil {
				return err
			}
			cases, err := selectCases(matrix, filter)
			if err != nil {
				return err
			}
			return printer.Print(output.CaseList(cases))
		},
	}

	cmd.Flags().StringVar(&matrix, "matrix", "", "YAML matrix file (default: built-in matrix)")
	cmd.Flags().StringVar(&filter, "filter", "", "Regular expression selecting cases by label")

	return cmd
}
