// Package logutil builds the single *zap.Logger cmd/brkindexd threads
// down into every long-lived component. There is no package-global
// logger anywhere in this repository; this is the one place a Logger
// gets constructed.
package logutil

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded logger at the given level ("debug",
// "info", "warn", "error"). Output goes to stderr, matching the
// teacher's CLI-tool convention of keeping stdout free for data.
func New(level string) (*zap.Logger, error) {
	var zl zapcore.Level
	if err := zl.Set(level); err != nil {
		return nil, errors.Wrapf(err, "logutil: unknown level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "logutil: build logger")
	}
	return logger, nil
}
