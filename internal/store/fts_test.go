package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedFTSNodes(t *testing.T, s *Store) {
	t.Helper()
	err := s.Tx(func(tx *sql.Tx) error {
		for _, n := range []Node{
			{ID: "n1", Name: sql.NullString{String: "Zurich Office", Valid: true}},
			{ID: "n2", Name: sql.NullString{String: "Berlin Office", Valid: true}},
			{ID: "n3", Name: sql.NullString{String: "Zurich Home", Valid: true}},
		} {
			if err := UpsertNode(tx, n); err != nil {
				return err
			}
		}
		return RebuildFTS(tx)
	})
	require.NoError(t, err)
}

func TestSearchFTSMatchesByName(t *testing.T) {
	s := openTestStore(t)
	seedFTSNodes(t, s)

	ids, err := s.SearchFTS("Zurich Office", 10)
	require.NoError(t, err)
	require.Contains(t, ids, "n1")
}

func TestRebuildFTSSkipsEmptyNames(t *testing.T) {
	s := openTestStore(t)
	err := s.Tx(func(tx *sql.Tx) error {
		if err := UpsertNode(tx, Node{ID: "n1", Name: sql.NullString{String: "", Valid: true}}); err != nil {
			return err
		}
		return RebuildFTS(tx)
	})
	require.NoError(t, err)

	ids, err := s.SearchFTS("n1", 10)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestFtsEscapeHandlesQuotes(t *testing.T) {
	require.Equal(t, `"say ""hi"" now"`, ftsEscape(`say "hi" now`))
}
