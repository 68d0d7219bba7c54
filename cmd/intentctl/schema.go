package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

func (c *cli) schemaCmd() *cobra.Command {
	var typ, format string
	var example bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema of an intent variant",
		Long: `Prints a variant's schema as prompt instructions, JSON Schema, the
strict structured-output form or the Gemini response schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := schema.ParseEncoding(format)
			if err != nil {
				return err
			}
			key := domain.IntentType(typ)
			if !key.Known() {
				return fmt.Errorf("unknown intent type %q", typ)
			}

			if example {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), schema.ExampleJSON(key))
				return err
			}
			out, err := schema.Describe(key, enc)
			if err != nil {
				return err
			}
			if s, ok := out.(string); ok {
				_, err := fmt.Fprint(cmd.OutOrStdout(), s)
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(domain.DefaultIntentType), "intent type")
	cmd.Flags().StringVarP(&format, "format", "f", string(schema.EncodingJSONSchema), "prompt, json_schema, strict_json_schema or gemini")
	cmd.Flags().BoolVar(&example, "example", false, "print the example intent instead")
	return cmd
}
