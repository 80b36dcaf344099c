// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xl2sql/internal/config"
	"xl2sql/internal/core"
	"xl2sql/internal/logging"
)

// cli holds state shared by every command of one invocation.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "xl2sql",
		Short: "Convert spreadsheets into SQL INSERT scripts",
		Long: `xl2sql reads a CSV, TSV, XLSX or XLS file and writes one INSERT
statement per data row, optionally wrapped in SET IDENTITY_INSERT toggles.

Defaults for every command can be kept in xl2sql.toml.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to the config file (default: ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(c.generateCmd())
	rootCmd.AddCommand(c.previewCmd())
	rootCmd.AddCommand(c.applyCmd())

	return rootCmd
}

// setup loads the config file, lets explicit flags override it and sets up
// logging on stderr.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

// userMessage turns an error into the text shown to the user.
func userMessage(err error) string {
	var validationErr *core.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	return err.Error()
}

func printError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed).Fprintf(w, "Error: %s\n", userMessage(err))
}

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(w, format+"\n", args...)
}

// stringFlag returns the flag value when it was given, else fallback.
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, value, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

func printInfo(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, msg)
}
