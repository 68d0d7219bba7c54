package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/compare"
)

func (c *cli) compareCmd() *cobra.Command {
	var diff bool
	cmd := &cobra.Command{
		Use:   "compare <a.json> <b.json>",
		Short: "Compare two intents field by field",
		Long: `Prints the differing fields of two intents as JSON, or a readable
-a +b diff with --diff. The exit status is non-zero when they differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readJSON(cmd, args[0])
			if err != nil {
				return err
			}
			b, err := readJSON(cmd, args[1])
			if err != nil {
				return err
			}

			res := compare.Compare(a, b)
			if diff {
				if !res.IsEqual {
					fmt.Fprint(cmd.OutOrStdout(), compare.Diff(a, b))
				}
			} else if err := printJSON(cmd, res); err != nil {
				return err
			}
			if !res.IsEqual {
				return errDiffer
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&diff, "diff", false, "print a readable diff instead of JSON")
	return cmd
}
