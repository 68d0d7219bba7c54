package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/validator"
)

type fileResult struct {
	File string `json:"file"`
	validator.Result
}

func (c *cli) validateCmd() *cobra.Command {
	var strict, normalize bool
	cmd := &cobra.Command{
		Use:   "validate <file.json>...",
		Short: "Validate one or more intent files",
		Long: `Validates each file as an LLM intent and prints the results as JSON.
Use "-" to read stdin. The exit status is non-zero when any intent is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := validator.Options{Strict: c.cfg.Validation.Strict, Normalize: c.cfg.Validation.Normalize}
			if cmd.Flags().Changed("strict") {
				opts.Strict = strict
			}
			if cmd.Flags().Changed("normalize") {
				opts.Normalize = normalize
			}

			results := make([]fileResult, 0, len(args))
			invalid := 0
			for _, path := range args {
				raw, err := readJSON(cmd, path)
				if err != nil {
					return err
				}
				res := validator.Validate(raw, opts)
				if !res.IsValid {
					invalid++
					c.logger.Debug("invalid intent", zap.String("file", path), zap.Any("errors", res.Errors))
				}
				results = append(results, fileResult{File: path, Result: res})
			}

			if err := printJSON(cmd, results); err != nil {
				return err
			}
			if invalid > 0 {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "include the normalized intent")
	return cmd
}
