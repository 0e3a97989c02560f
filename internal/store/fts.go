package store

import (
	"strings"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// ensureFTS creates the FTS5 virtual table over node names. It is a
// standalone (not content=) table so rebuilds are a simple
// delete-then-reinsert rather than needing an integer-rowid-compatible
// content table, since node ids are opaque strings.
func (s *Store) ensureFTS() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(id UNINDEXED, name)`)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "creating nodes_fts")
	}
	return nil
}

// RebuildFTS repopulates nodes_fts from the current nodes table. Called at
// the end of indexing. Must run inside the same
// transaction as the delta apply so readers never see a stale index.
func RebuildFTS(tx Execer) error {
	if _, err := tx.Exec("DELETE FROM nodes_fts"); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing nodes_fts")
	}
	_, err := tx.Exec(`INSERT INTO nodes_fts(id, name) SELECT id, name FROM nodes WHERE name IS NOT NULL AND name != ''`)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "repopulating nodes_fts")
	}
	return nil
}

// SearchFTS returns node ids whose name matches the FTS5 query (already
// escaped by the caller), most relevant first, capped at limit.
func (s *Store) SearchFTS(query string, limit int) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	rows, err := s.db.Query(
		`SELECT id FROM nodes_fts WHERE nodes_fts MATCH ? ORDER BY rank LIMIT ?`,
		ftsEscape(query), limit,
	)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "searching nodes_fts")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning nodes_fts row")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ftsEscape quotes query as an FTS5 phrase so punctuation in node names
// (colons, hyphens) doesn't get parsed as FTS5 query syntax. It is an
// exact phrase match; no prefix wildcard is added.
func ftsEscape(query string) string {
	q := strings.ReplaceAll(query, `"`, `""`)
	return `"` + q + `"`
}
