// Package config reads the optional xl2sql.toml file holding defaults for
// every command. Flags given on the command line take precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "xl2sql.toml"

// Config is the top-level TOML document.
type Config struct {
	Generate Generate `toml:"generate"`
	Log      Log      `toml:"log"`
	Apply    Apply    `toml:"apply"`
}

// Generate maps [generate].
type Generate struct {
	Table          string `toml:"table"`
	IdentityInsert bool   `toml:"identity_insert"`
	Sheet          string `toml:"sheet"`
	Delimiter      string `toml:"delimiter"`
	OutputDir      string `toml:"output_dir"`
}

// Log maps [log].
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Apply maps [apply].
type Apply struct {
	DSN         string `toml:"dsn"`
	Timeout     int    `toml:"timeout"`
	Transaction bool   `toml:"transaction"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Apply: Apply{
			Timeout:     300,
			Transaction: true,
		},
	}
}

// Load reads path on top of the defaults. A missing file at DefaultPath is
// not an error; a missing file anywhere else is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes TOML from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated and ranged settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: invalid log level %q; use debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q; use text or json", c.Log.Format)
	}
	if c.Apply.Timeout < 0 {
		return fmt.Errorf("config: apply timeout must not be negative, got %d", c.Apply.Timeout)
	}
	if d := c.Generate.Delimiter; d != "" && d != `\t` && utf8.RuneCountInString(d) != 1 {
		return fmt.Errorf("config: delimiter %q must be a single character", d)
	}
	return nil
}
