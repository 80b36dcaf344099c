package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"xl2sql/internal/apply"
)

type applyFlags struct {
	dsn                   string
	file                  string
	dryRun                bool
	transaction           bool
	allowNonTransactional bool
	unsafe                bool
	timeout               int
}

func (c *cli) applyCmd() *cobra.Command {
	var flags applyFlags

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run a generated INSERT script against a MySQL database",
		Long: `Connects to your database and runs a script written by generate or
printed by preview --format json.

This command performs preflight checks before execution:
- Flags INSERT rows whose value count does not match the column list
- Refuses destructive operations (DELETE, DROP, TRUNCATE) without --unsafe
- Skips SET IDENTITY_INSERT toggles, which MySQL does not understand

Examples:
  xl2sql apply --dsn "user:pass@tcp(localhost:3306)/mydb" --file People_Insert.sql
  xl2sql apply --dsn "user:pass@tcp(localhost:3306)/mydb" --file People_Insert.sql --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := c.cfg.Apply

			dsn := stringFlag(cmd, "dsn", flags.dsn, cfg.DSN)
			transaction := boolFlag(cmd, "transaction", flags.transaction, cfg.Transaction)
			timeout := cfg.Timeout
			if cmd.Flags().Changed("timeout") {
				timeout = flags.timeout
			}

			if dsn == "" && !flags.dryRun {
				return fmt.Errorf("--dsn is required")
			}
			if flags.file == "" {
				return fmt.Errorf("--file is required")
			}

			content, err := os.ReadFile(flags.file)
			if err != nil {
				return fmt.Errorf("failed to read script file: %w", err)
			}

			applier := apply.NewApplier(apply.Options{
				DSN:                   dsn,
				FilePath:              flags.file,
				DryRun:                flags.dryRun,
				Transaction:           transaction,
				AllowNonTransactional: flags.allowNonTransactional,
				Unsafe:                flags.unsafe,
				Out:                   out,
			})

			statements := applier.ParseStatements(string(content))
			if len(statements) == 0 {
				printInfo(out, "No SQL statements found in script file")
				return nil
			}
			_, _ = fmt.Fprintf(out, "Found %d statement(s) in %s\n\n", len(statements), flags.file)

			preflight := applier.PreflightChecks(statements, flags.unsafe)
			c.logger.Debug("preflight finished",
				"statements", len(statements),
				"skipped", len(preflight.Skipped),
				"warnings", len(preflight.Warnings),
			)

			if apply.HasDestructiveOperations(preflight) && !flags.unsafe && !flags.dryRun {
				printInfo(out, "--- Preflight Warnings ---")
				for _, w := range preflight.Warnings {
					if w.Level == apply.WarnDanger {
						_, _ = fmt.Fprintf(out, "✗ [%s] %s\n", w.Level, w.Message)
						if w.SQL != "" {
							_, _ = fmt.Fprintf(out, "    SQL: %s\n", w.SQL)
						}
					}
				}
				return fmt.Errorf("dangerous statements detected; use --unsafe to allow them")
			}

			if flags.dryRun {
				return applier.Apply(context.Background(), statements, preflight)
			}

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
				defer cancel()
			}

			printInfo(out, "Connecting to database...")
			if err := applier.Connect(ctx); err != nil {
				return err
			}
			defer func() {
				if err := applier.Close(); err != nil {
					c.logger.Warn("failed to close database connection", "error", err)
				}
			}()

			return applier.Apply(ctx, statements, preflight)
		},
	}

	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Database connection string (default: [apply].dsn)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Path to the SQL script (required)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "d", false, "Print statements and run preflight checks without executing")
	cmd.Flags().BoolVarP(&flags.transaction, "transaction", "t", true, "Run the script in a transaction if possible")
	cmd.Flags().BoolVar(&flags.allowNonTransactional, "allow-non-transactional", false, "Allow non-transactional DDL when --transaction is set")
	cmd.Flags().BoolVarP(&flags.unsafe, "unsafe", "u", false, "Allow destructive operations (DELETE, DROP, TRUNCATE)")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 300, "Database timeout in seconds, 0 disables it (default: [apply].timeout)")
	return cmd
}
