package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "workspace.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.Stats()
	require.NoError(t, err)

	for _, table := range []string{
		"nodes", "node_refs", "tag_applications", "field_values",
		"supertag_metadata", "supertag_fields", "supertag_parents",
	} {
		_, ok := stats[table]
		require.True(t, ok, "missing table %s in stats", table)
		require.Zero(t, stats[table])
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "workspace.db")
	vecDir := filepath.Join(dir, "vectors")

	s1, err := Open(dbPath, vecDir)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(dbPath, vecDir)
	require.NoError(t, err)
	defer s2.Close()

	version, err := s2.schemaVersion()
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)
}

func TestStatsReflectsInsertedRows(t *testing.T) {
	s := openTestStore(t)

	err := s.Tx(func(tx *sql.Tx) error {
		return UpsertNode(tx, Node{ID: "n1", Name: sql.NullString{String: "Zurich", Valid: true}})
	})
	require.NoError(t, err)

	stats, err := s.Stats()
	require.NoError(t, err)
	require.EqualValues(t, 1, stats["nodes"])
}
