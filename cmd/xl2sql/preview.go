package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xl2sql/internal/convert"
	"xl2sql/internal/output"
)

func (c *cli) previewCmd() *cobra.Command {
	var flags inputFlags
	var format string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Print the INSERT script without writing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}

			script, err := convert.New(c.logger).Build(c.request(cmd, args[0], &flags))
			if err != nil {
				return err
			}

			text, err := formatter.FormatScript(script)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql, json or summary")
	return cmd
}
