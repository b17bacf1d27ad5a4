package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func capture(tb testing.TB) *bytes.Buffer {
	var buf bytes.Buffer
	prev := logWriter
	logWriter = &buf
	tb.Cleanup(func() { logWriter = prev })
	return &buf
}

func TestNew_Level(t *testing.T) {
	buf := capture(t)
	logger, err := New("recon", "info", JSONEncoder)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", zap.Int("txs", 3))
	require.NoError(t, logger.Sync())

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)
	require.Contains(t, out, `"txs":3`)
	require.Contains(t, out, `"logger":"recon"`)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("recon", "loud", ConsoleEncoder)
	require.Error(t, err)
	_, err = New("recon", "info", "xml")
	require.Error(t, err)
}

func TestNewWithLevel_Hooks(t *testing.T) {
	capture(t)
	hooked := 0
	logger := NewWithLevel("sim",
		zap.NewAtomicLevelAt(zapcore.WarnLevel),
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		func(entry zapcore.Entry) error {
			hooked++
			require.Equal(t, zapcore.WarnLevel, entry.Level)
			return nil
		},
	)
	logger.Info("skipped")
	logger.Warn("counted")
	require.Equal(t, 1, hooked)
}

func TestFatalError(t *testing.T) {
	reason := errors.New("bad salt")
	err := ErrInvalidConfig(reason)
	require.ErrorIs(t, err, reason)
	require.Equal(t, "invalid configuration: bad salt", err.Error())

	withArgs := ErrWriteReport("out.json", "disk full")
	require.Equal(t, "could not write report to out.json: disk full", withArgs.Error())

	buf := capture(t)
	logger, lerr := New("app", "info", JSONEncoder)
	require.NoError(t, lerr)
	logger.Info("fatal", zap.Object("err", withArgs))
	require.Contains(t, buf.String(), `"code":"ERR_WRITE_REPORT"`)
}
