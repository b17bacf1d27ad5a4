// Package log builds the zap loggers used by the command line tools.
// Library packages accept a *zap.Logger and never construct one themselves.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Encoder names a log encoder.
type Encoder = string

const (
	// ConsoleEncoder writes plain text.
	ConsoleEncoder Encoder = "console"
	// JSONEncoder writes one JSON object per entry.
	JSONEncoder Encoder = "json"
)

// where logs go by default.
var logWriter io.Writer = os.Stdout

// NewNop creates a silent logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// NewWithLevel creates a named logger with a fixed level and with a set of (optional) hooks.
func NewWithLevel(module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(logWriter), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

// New creates a named logger from textual level and encoder names.
func New(module, level string, encoder Encoder) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse level for %s: %w", module, err)
	}
	enc, err := newEncoder(encoder)
	if err != nil {
		return nil, err
	}
	return NewWithLevel(module, lvl, enc), nil
}

func newEncoder(encoder Encoder) (zapcore.Encoder, error) {
	switch encoder {
	case ConsoleEncoder, "":
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), nil
	case JSONEncoder:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	default:
		return nil, fmt.Errorf("unknown log encoder %q", encoder)
	}
}
