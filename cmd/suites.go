package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"contendq/internal/scenario"
)

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "List scenario suites and their default weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range scenario.SuiteNames() {
			suite, err := scenario.LookupSuite(name)
			if err != nil {
				return err
			}
			setup := ""
			if suite.Setup != nil {
				setup = "  (provisions fixtures)"
			}
			fmt.Fprintf(out, "%s%s\n", suite.Name, setup)
			for _, s := range suite.Scenarios {
				fmt.Fprintf(out, "  %-28s weight %.2f\n", s.Name(), s.Weight())
			}
		}
		return nil
	},
}
