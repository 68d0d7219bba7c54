package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/config"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
)

// Returned when a command ran correctly but found a problem, so the process
// exits non-zero without printing usage.
var (
	errInvalid = errors.New("one or more intents are invalid")
	errDiffer  = errors.New("intents differ")
	errFailed  = errors.New("battery has failing cases")
)

type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "intentctl",
		Short:         "Validate, compare and describe Overture music intents",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.verbose {
				cfg.Logging.Level = "debug"
			}
			logger, err := config.NewLogger(config.LoggingConfig{Level: cfg.Logging.Level, Format: "console"})
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to overture.yaml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.validateCmd(),
		c.compareCmd(),
		c.schemaCmd(),
		c.batteryCmd(),
	)
	return root
}

// readJSON decodes a JSON file; "-" reads stdin.
func readJSON(cmd *cobra.Command, path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := jsonv.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
