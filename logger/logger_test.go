package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewModes(t *testing.T) {
	for mode, level := range map[string]zapcore.Level{
		"production":  zapcore.InfoLevel,
		"test":        zapcore.WarnLevel,
		"development": zapcore.DebugLevel,
	} {
		l, err := New(mode)
		require.NoError(t, err)
		require.True(t, l.SugaredLogger.Desugar().Core().Enabled(level), mode)
		require.False(t, l.SugaredLogger.Desugar().Core().Enabled(level-1), mode)
	}
}

func TestNopAndWith(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("ignored", "k", 1)
	l.Sync()
}
