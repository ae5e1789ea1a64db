package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesToLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")
	l := New(true, logFile)
	require.NotNil(t, l)

	l.Info("hello")
	l.Zap().Sync()

	data, err := filepath.Glob(logFile)
	require.NoError(t, err)
	require.Len(t, data, 1)
}

func TestWithReturnsZapLogger(t *testing.T) {
	l := New(false, "")
	child := l.With()
	require.NotNil(t, child)
	require.IsType(t, &ZapLogger{}, child)
}
