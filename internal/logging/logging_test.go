package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "key=value")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	require.Error(t, err)
}

func TestOpenFile_CreatesDirectoriesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "sparknova.log")

	logger, closer, err := OpenFile(path, Options{Level: "debug"})
	require.NoError(t, err)
	logger.Debug("first")
	require.NoError(t, closer.Close())

	logger, closer, err = OpenFile(path, Options{})
	require.NoError(t, err)
	logger.Info("second")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "first")
	require.Contains(t, string(data), "second")
}

func TestDiscard_DropsEverything(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Error("dropped", "key", "value")
	require.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
