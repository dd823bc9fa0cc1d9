package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("bogus"))
}

func TestPackageHelpersUseInstalledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Debug("d")
	Info("i", zap.String("k", "v"))
	Warn("w")
	Error("e")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "i", entries[1].Message)
	assert.Equal(t, "v", entries[1].ContextMap()["k"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momentscli.log")
	l := New(&Config{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})

	l.Info("hello", zap.String("endpoint", "moments"))
	l.Debug("filtered")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"endpoint":"moments"`)
	assert.NotContains(t, string(data), "filtered")
}
