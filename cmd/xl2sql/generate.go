package main

import (
	"github.com/spf13/cobra"

	"xl2sql/internal/convert"
)

// inputFlags are the flags shared by generate and preview.
type inputFlags struct {
	table          string
	identityInsert bool
	sheet          string
	delimiter      string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "Target table name (required unless set in config)")
	cmd.Flags().BoolVarP(&f.identityInsert, "identity-insert", "i", false, "Wrap the inserts in SET IDENTITY_INSERT ON/OFF")
	cmd.Flags().StringVarP(&f.sheet, "sheet", "s", "", "Worksheet name for Excel files (default: first sheet)")
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", `CSV field delimiter, a single character or \t`)
}

// request merges the flags with the [generate] config table.
func (c *cli) request(cmd *cobra.Command, path string, f *inputFlags) convert.Request {
	gen := c.cfg.Generate
	return convert.Request{
		Path:           path,
		Table:          stringFlag(cmd, "table", f.table, gen.Table),
		IdentityInsert: boolFlag(cmd, "identity-insert", f.identityInsert, gen.IdentityInsert),
		Sheet:          stringFlag(cmd, "sheet", f.sheet, gen.Sheet),
		Delimiter:      stringFlag(cmd, "delimiter", f.delimiter, gen.Delimiter),
		OutputDir:      gen.OutputDir,
	}
}

func (c *cli) generateCmd() *cobra.Command {
	var flags inputFlags
	var outFile string

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Write an INSERT script for a spreadsheet",
		Long: `Generate reads the rows of a CSV, TSV, XLSX or XLS file and writes one
INSERT statement per row to <table>_Insert.sql next to the source file.

Examples:
  xl2sql generate people.xlsx --table People
  xl2sql generate people.csv --table dbo.People --identity-insert
  xl2sql generate export.xlsx --table Orders --sheet 2024 --output orders.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := c.request(cmd, args[0], &flags)
			req.OutputPath = outFile

			result, err := convert.New(c.logger).Run(req)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "SQL script saved to: %s", result.OutputPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file (default: <table>_Insert.sql next to the source)")
	return cmd
}
