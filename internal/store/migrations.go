package store

import (
	"database/sql"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

// CurrentSchemaVersion is bumped on every forward-only migration.
//
// v1: nodes, node_refs, tag_applications, field_values
// v2: supertag_metadata, supertag_fields, supertag_parents
// v3: nodes_fts (FTS5 over node names)
const CurrentSchemaVersion = 3

const createSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	name TEXT,
	parent_id TEXT,
	doc_type TEXT,
	created INTEGER,
	updated INTEGER,
	done_at INTEGER,
	raw BLOB
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
CREATE INDEX IF NOT EXISTS idx_nodes_doc_type ON nodes(doc_type);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);

CREATE TABLE IF NOT EXISTS node_refs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_node TEXT NOT NULL,
	to_node TEXT NOT NULL,
	reference_type TEXT
);
CREATE INDEX IF NOT EXISTS idx_refs_from ON node_refs(from_node);
CREATE INDEX IF NOT EXISTS idx_refs_to ON node_refs(to_node);

CREATE TABLE IF NOT EXISTS tag_applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tuple_node_id TEXT NOT NULL,
	data_node_id TEXT NOT NULL,
	tag_id TEXT NOT NULL,
	tag_name TEXT
);
CREATE INDEX IF NOT EXISTS idx_tagapp_data ON tag_applications(data_node_id);
CREATE INDEX IF NOT EXISTS idx_tagapp_tag ON tag_applications(tag_id);
CREATE INDEX IF NOT EXISTS idx_tagapp_tuple ON tag_applications(tuple_node_id);

CREATE TABLE IF NOT EXISTS field_values (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tuple_id TEXT,
	parent_id TEXT NOT NULL,
	field_def_id TEXT,
	field_name TEXT,
	value_node_id TEXT,
	value_text TEXT,
	value_order INTEGER NOT NULL DEFAULT 0,
	UNIQUE(parent_id, field_def_id, value_order)
);
CREATE INDEX IF NOT EXISTS idx_fieldval_parent ON field_values(parent_id);
CREATE INDEX IF NOT EXISTS idx_fieldval_def ON field_values(field_def_id);
CREATE INDEX IF NOT EXISTS idx_fieldval_tuple ON field_values(tuple_id);

CREATE TABLE IF NOT EXISTS supertag_metadata (
	tag_id TEXT PRIMARY KEY,
	tag_name TEXT NOT NULL,
	normalized_name TEXT NOT NULL,
	description TEXT,
	color TEXT
);
CREATE INDEX IF NOT EXISTS idx_supertag_name ON supertag_metadata(tag_name);
CREATE INDEX IF NOT EXISTS idx_supertag_norm ON supertag_metadata(normalized_name);

CREATE TABLE IF NOT EXISTS supertag_fields (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag_id TEXT NOT NULL,
	field_name TEXT NOT NULL,
	field_label_id TEXT NOT NULL,
	field_order INTEGER NOT NULL DEFAULT 0,
	normalized_name TEXT NOT NULL,
	description TEXT,
	inferred_data_type TEXT NOT NULL,
	target_supertag_id TEXT,
	default_value_id TEXT,
	UNIQUE(tag_id, field_label_id)
);
CREATE INDEX IF NOT EXISTS idx_superfield_tag ON supertag_fields(tag_id);
CREATE INDEX IF NOT EXISTS idx_superfield_norm ON supertag_fields(tag_id, normalized_name);

CREATE TABLE IF NOT EXISTS supertag_parents (
	child_tag_id TEXT NOT NULL,
	parent_tag_id TEXT NOT NULL,
	PRIMARY KEY(child_tag_id, parent_tag_id)
);
CREATE INDEX IF NOT EXISTS idx_superparent_child ON supertag_parents(child_tag_id);
CREATE INDEX IF NOT EXISTS idx_superparent_parent ON supertag_parents(parent_tag_id);
`

// initializeSchema applies forward-only migrations. It is idempotent:
// CREATE TABLE/INDEX IF NOT EXISTS means re-running against an
// already-migrated store is a no-op.
func (s *Store) initializeSchema() error {
	timer := logging.StartTimer(logging.CategoryStore, "initializeSchema")
	defer timer.Stop()

	if _, err := s.db.Exec(createSQL); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "applying base schema")
	}
	if err := s.ensureFTS(); err != nil {
		return err
	}

	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_meta(version) VALUES (?)", CurrentSchemaVersion); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "recording schema version")
		}
	} else if version < CurrentSchemaVersion {
		if _, err := s.db.Exec("UPDATE schema_meta SET version = ?", CurrentSchemaVersion); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "updating schema version")
		}
	}
	return nil
}

// SchemaVersion reports the migration version currently recorded in
// the store, for `supertag migrate` to display.
func (s *Store) SchemaVersion() (int, error) {
	return s.schemaVersion()
}

func (s *Store) schemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, superr.Wrap(superr.DatabaseCorrupt, err, "reading schema version")
	}
	return v, nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	return err == nil
}
