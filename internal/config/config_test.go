package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	c := Default()
	c.DataDir = ""
	require.Error(t, c.Validate())
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	c := Default()
	c.LogLevel = "verbose"
	require.Error(t, c.Validate())
}

func TestValidateAcceptsEveryDocumentedLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		c := Default()
		c.LogLevel = lvl
		require.NoError(t, c.Validate(), "level %q should be accepted", lvl)
	}
}

func TestBindFlagsOverridesDefaults(t *testing.T) {
	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)

	require.NoError(t, fs.Parse([]string{"--datadir=/tmp/custom", "--blocks=/tmp/blocks.jsonl", "--base-version=7", "--log-level=debug"}))

	require.Equal(t, "/tmp/custom", c.DataDir)
	require.Equal(t, "/tmp/blocks.jsonl", c.BlocksPath)
	require.Equal(t, uint64(7), c.BaseVersion)
	require.Equal(t, "debug", c.LogLevel)
}
