// Package config holds the indexer's flat runtime configuration,
// bound directly onto a pflag.FlagSet by cmd/brkindexd.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is every knob brkindexd exposes. It is intentionally flat: no
// file-format parsing library is needed for a surface this small.
type Config struct {
	// DataDir is the root directory holding the CVS "columns"
	// subdirectory and the PKV "keyspace" subdirectory.
	DataDir string
	// BlocksPath is the newline-delimited-JSON block fixture the
	// blocksrc shim reads from; only serve uses it.
	BlocksPath string
	// BaseVersion is combined with the schema's catalog and per-column
	// versions on open; bump it to force a full forced_import rebuild.
	BaseVersion uint64
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
}

// Default returns the zero-value-safe starting point every subcommand
// binds its flags onto.
func Default() *Config {
	return &Config{
		DataDir:     "./brkindex-data",
		BlocksPath:  "",
		BaseVersion: 1,
		LogLevel:    "info",
	}
}

// BindFlags registers every field of c onto fs, the same
// one-struct-one-flagset shape used throughout.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DataDir, "datadir", c.DataDir, "indexer data directory")
	fs.StringVar(&c.BlocksPath, "blocks", c.BlocksPath, "newline-delimited-JSON block fixture path")
	fs.Uint64Var(&c.BaseVersion, "base-version", c.BaseVersion, "base schema version, combined with the catalog's own")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
}

// Validate rejects a configuration that cannot possibly run.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: datadir must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}
