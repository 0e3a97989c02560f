package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	logsDir = ""
	require.NoError(t, Initialize(dir, false, "info"))

	l := Get(CategoryStore)
	l.Info("should not panic or write anything")

	entries, err := os.ReadDir(filepath.Join(dir, ".supertag", "logs"))
	if err == nil {
		require.Empty(t, entries)
	}
}

func TestInitializeEnabledWritesFile(t *testing.T) {
	dir := t.TempDir()
	logsDir = ""
	loggers = make(map[Category]*Logger)
	require.NoError(t, Initialize(dir, true, "debug"))
	defer CloseAll()

	l := Get(CategoryIndexer)
	l.Info("hello %s", "world")

	entries, err := os.ReadDir(filepath.Join(dir, ".supertag", "logs"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestTimerStopWithThreshold(t *testing.T) {
	dir := t.TempDir()
	logsDir = ""
	loggers = make(map[Category]*Logger)
	require.NoError(t, Initialize(dir, true, "debug"))
	defer CloseAll()

	timer := StartTimer(CategoryQuery, "test-op")
	elapsed := timer.StopWithThreshold(0)
	require.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}
