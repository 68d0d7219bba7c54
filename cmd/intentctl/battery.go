package main

import (
	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/overture/intentengine/internal/adapters/sqlite"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
	"github.com/ewilliams-labs/overture/intentengine/internal/regression"
)

func (c *cli) batteryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battery",
		Short: "Regression batteries of recorded backend outputs",
	}
	cmd.AddCommand(c.batteryRunCmd())
	return cmd
}

func (c *cli) batteryRunCmd() *cobra.Command {
	var dbPath string
	var workers int
	cmd := &cobra.Command{
		Use:   "run <battery.yaml>",
		Short: "Validate and compare every case of a battery",
		Long: `Replays a battery through the validator and comparator and prints a
summary as JSON. With --db each case is stored as a drift report in that
SQLite file. The exit status is non-zero when any case fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := regression.Load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = c.cfg.Worker.Workers
			}

			var repo ports.DriftRepository
			if dbPath != "" {
				a, err := sqlite.NewAdapter(dbPath)
				if err != nil {
					return err
				}
				defer a.Close()
				repo = a
			}

			sum, err := regression.NewRunner(workers, repo, c.logger).Run(cmd.Context(), b)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, sum); err != nil {
				return err
			}
			if sum.Failed > 0 {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "store results as drift reports in this SQLite file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent cases")
	return cmd
}
