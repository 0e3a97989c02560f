package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nbbaier/supertag/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const minimalSnapshot = `{
  "formatVersion": 1,
  "docs": [
    {"id":"N1","props":{"name":"Team sync Zurich"}}
  ],
  "editors": [],
  "workspaces": {}
}`

func newTestWatcher(t *testing.T, dir string, debounceMS int) (*Watcher, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	w, err := New(Config{
		SnapshotDir:     dir,
		SchemaCachePath: filepath.Join(dir, "schema.json"),
		DebounceMS:      debounceMS,
		Store:           s,
	})
	require.NoError(t, err)
	return w, s
}

func TestWatcherIndexesOnSingleEvent(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir, 30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "export@2025-01-01.json"), []byte(minimalSnapshot), 0o644))

	select {
	case report := <-w.Indexed:
		require.Equal(t, 1, report.NodesTotal)
	case err := <-w.Errors:
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for indexed event")
	}

	_, err := os.Stat(filepath.Join(dir, "schema.json"))
	require.NoError(t, err)
}

func TestWatcherDebouncesBurstIntoOneIndexRun(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir, 80)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	path := filepath.Join(dir, "export@2025-01-01.json")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(minimalSnapshot), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Indexed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for indexed event")
	}

	select {
	case r := <-w.Indexed:
		t.Fatalf("expected exactly one index run for the debounced burst, got a second: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestIndexLatestPicksLexicographicallyGreatestFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export@2025-01-01.json"), []byte(minimalSnapshot), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export@2025-02-01.json"), []byte(minimalSnapshot), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	path, err := LatestSnapshot(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "export@2025-02-01.json"), path)
}

func TestStopTransitionsToIdleAndStopsChannel(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	w.Stop()
	require.Equal(t, StateIdle, w.State())
}
