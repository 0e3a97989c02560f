package store

import (
	"database/sql"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// SupertagMetaRow mirrors the supertag_metadata table.
type SupertagMetaRow struct {
	TagID          string
	TagName        string
	NormalizedName string
	Description    sql.NullString
	Color          sql.NullString
}

// SupertagFieldRow mirrors the supertag_fields table.
type SupertagFieldRow struct {
	TagID            string
	FieldName        string
	FieldLabelID     string
	FieldOrder       int
	NormalizedName   string
	Description      sql.NullString
	InferredDataType string
	TargetSupertagID sql.NullString
	DefaultValueID   sql.NullString
}

// UpsertSupertagMeta inserts or updates a supertag_metadata row.
func UpsertSupertagMeta(tx Execer, r SupertagMetaRow) error {
	_, err := tx.Exec(`
		INSERT INTO supertag_metadata (tag_id, tag_name, normalized_name, description, color)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tag_id) DO UPDATE SET
			tag_name=excluded.tag_name, normalized_name=excluded.normalized_name,
			description=excluded.description, color=excluded.color
	`, r.TagID, r.TagName, r.NormalizedName, r.Description, r.Color)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "upserting supertag metadata "+r.TagID)
	}
	return nil
}

// UpsertSupertagField inserts or updates a supertag_fields row, keyed by
// (tag_id, field_label_id), which must be unique.
func UpsertSupertagField(tx Execer, r SupertagFieldRow) error {
	_, err := tx.Exec(`
		INSERT INTO supertag_fields
			(tag_id, field_name, field_label_id, field_order, normalized_name, description, inferred_data_type, target_supertag_id, default_value_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag_id, field_label_id) DO UPDATE SET
			field_name=excluded.field_name, field_order=excluded.field_order,
			normalized_name=excluded.normalized_name, description=excluded.description,
			inferred_data_type=excluded.inferred_data_type,
			target_supertag_id=excluded.target_supertag_id, default_value_id=excluded.default_value_id
	`, r.TagID, r.FieldName, r.FieldLabelID, r.FieldOrder, r.NormalizedName, r.Description,
		r.InferredDataType, r.TargetSupertagID, r.DefaultValueID)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "upserting supertag field "+r.FieldLabelID)
	}
	return nil
}

// InsertSupertagParent inserts a child->parent edge if absent. Callers
// must check for cycles before calling this (the indexer package owns
// that check, since it needs the full graph in memory).
func InsertSupertagParent(tx Execer, childTagID, parentTagID string) error {
	_, err := tx.Exec(
		`INSERT OR IGNORE INTO supertag_parents (child_tag_id, parent_tag_id) VALUES (?, ?)`,
		childTagID, parentTagID,
	)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "inserting supertag parent edge")
	}
	return nil
}

// ClearSupertagFields removes all field rows for tagID, used before
// re-deriving them during a fresh index pass.
func ClearSupertagFields(tx Execer, tagID string) error {
	_, err := tx.Exec("DELETE FROM supertag_fields WHERE tag_id = ?", tagID)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing supertag fields for "+tagID)
	}
	return nil
}

// ClearSupertagParents removes all parent edges for childTagID.
func ClearSupertagParents(tx Execer, childTagID string) error {
	_, err := tx.Exec("DELETE FROM supertag_parents WHERE child_tag_id = ?", childTagID)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing supertag parents for "+childTagID)
	}
	return nil
}

// AllSupertagMeta returns every supertag_metadata row.
func AllSupertagMeta(q Queryer) ([]SupertagMetaRow, error) {
	rows, err := q.Query("SELECT tag_id, tag_name, normalized_name, description, color FROM supertag_metadata")
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "listing supertag metadata")
	}
	defer rows.Close()

	var out []SupertagMetaRow
	for rows.Next() {
		var r SupertagMetaRow
		if err := rows.Scan(&r.TagID, &r.TagName, &r.NormalizedName, &r.Description, &r.Color); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning supertag metadata row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SupertagFieldsFor returns tagID's own fields, ordered by field_order.
func SupertagFieldsFor(q Queryer, tagID string) ([]SupertagFieldRow, error) {
	rows, err := q.Query(`
		SELECT tag_id, field_name, field_label_id, field_order, normalized_name, description, inferred_data_type, target_supertag_id, default_value_id
		FROM supertag_fields WHERE tag_id = ? ORDER BY field_order
	`, tagID)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching fields for "+tagID)
	}
	defer rows.Close()

	var out []SupertagFieldRow
	for rows.Next() {
		var r SupertagFieldRow
		if err := rows.Scan(&r.TagID, &r.FieldName, &r.FieldLabelID, &r.FieldOrder, &r.NormalizedName,
			&r.Description, &r.InferredDataType, &r.TargetSupertagID, &r.DefaultValueID); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning supertag field row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ParentsOf returns the direct parent tag ids of childTagID.
func ParentsOf(q Queryer, childTagID string) ([]string, error) {
	rows, err := q.Query("SELECT parent_tag_id FROM supertag_parents WHERE child_tag_id = ?", childTagID)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching parents of "+childTagID)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning parent row")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllParentEdges returns the full child->[]parent adjacency, used to
// detect cycles before inserting a new edge.
func AllParentEdges(q Queryer) (map[string][]string, error) {
	rows, err := q.Query("SELECT child_tag_id, parent_tag_id FROM supertag_parents")
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "listing parent edges")
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var child, parent string
		if err := rows.Scan(&child, &parent); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning parent edge row")
		}
		out[child] = append(out[child], parent)
	}
	return out, rows.Err()
}

// GetSupertagMeta fetches a single supertag_metadata row by tag id.
func GetSupertagMeta(q Queryer, tagID string) (*SupertagMetaRow, error) {
	var r SupertagMetaRow
	err := q.QueryRow(
		"SELECT tag_id, tag_name, normalized_name, description, color FROM supertag_metadata WHERE tag_id = ?",
		tagID,
	).Scan(&r.TagID, &r.TagName, &r.NormalizedName, &r.Description, &r.Color)
	if err == sql.ErrNoRows {
		return nil, superr.Newf(superr.TagNotFound, "no supertag with id %q", tagID)
	}
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching supertag "+tagID)
	}
	return &r, nil
}
