package store

import (
	"database/sql"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// Node is the normalized row for one snapshot record.
type Node struct {
	ID       string
	Name     sql.NullString
	ParentID sql.NullString
	DocType  sql.NullString
	Created  sql.NullInt64
	Updated  sql.NullInt64
	DoneAt   sql.NullInt64
	Raw      []byte
}

// Reference is one directed edge; duplicates are permitted.
type Reference struct {
	FromNode string
	ToNode   string
	RefType  string
}

// TagApplication records that a data node carries a supertag.
type TagApplication struct {
	TupleNodeID string
	DataNodeID  string
	TagID       string
	TagName     string
}

// FieldValue is one value of one field on one node.
type FieldValue struct {
	TupleID     sql.NullString
	ParentID    string
	FieldDefID  sql.NullString
	FieldName   sql.NullString
	ValueNodeID sql.NullString
	ValueText   sql.NullString
	ValueOrder  int
}

// UpsertNode inserts or replaces a node row.
func UpsertNode(tx Execer, n Node) error {
	_, err := tx.Exec(`
		INSERT INTO nodes (id, name, parent_id, doc_type, created, updated, done_at, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, parent_id=excluded.parent_id, doc_type=excluded.doc_type,
			created=excluded.created, updated=excluded.updated, done_at=excluded.done_at, raw=excluded.raw
	`, n.ID, n.Name, n.ParentID, n.DocType, n.Created, n.Updated, n.DoneAt, n.Raw)
	if err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "upserting node "+n.ID)
	}
	return nil
}

// DeleteNodeCascade removes a node and everything anchored on it: outbound
// references, tag applications where it is the data node, and field
// values whose parent is this node.
func DeleteNodeCascade(tx Execer, id string) error {
	stmts := []struct {
		q    string
		args []interface{}
	}{
		{"DELETE FROM node_refs WHERE from_node = ?", []interface{}{id}},
		{"DELETE FROM tag_applications WHERE data_node_id = ? OR tuple_node_id = ?", []interface{}{id, id}},
		{"DELETE FROM field_values WHERE parent_id = ? OR tuple_id = ?", []interface{}{id, id}},
		{"DELETE FROM nodes WHERE id = ?", []interface{}{id}},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.q, st.args...); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "cascading delete for node "+id)
		}
	}
	return nil
}

// ReplaceReferences deletes fromNode's outbound references and inserts refs.
// Called when fromNode is added or modified during indexing.
func ReplaceReferences(tx Execer, fromNode string, refs []Reference) error {
	if _, err := tx.Exec("DELETE FROM node_refs WHERE from_node = ?", fromNode); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing references for "+fromNode)
	}
	for _, r := range refs {
		if _, err := tx.Exec(
			"INSERT INTO node_refs (from_node, to_node, reference_type) VALUES (?, ?, ?)",
			r.FromNode, r.ToNode, r.RefType,
		); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "inserting reference from "+fromNode)
		}
	}
	return nil
}

// ReplaceTagApplications deletes dataNode's existing tag applications and
// inserts apps. A data node may carry many tags.
func ReplaceTagApplications(tx Execer, dataNode string, apps []TagApplication) error {
	if _, err := tx.Exec("DELETE FROM tag_applications WHERE data_node_id = ?", dataNode); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing tag applications for "+dataNode)
	}
	for _, a := range apps {
		if _, err := tx.Exec(
			"INSERT INTO tag_applications (tuple_node_id, data_node_id, tag_id, tag_name) VALUES (?, ?, ?, ?)",
			a.TupleNodeID, a.DataNodeID, a.TagID, a.TagName,
		); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "inserting tag application for "+dataNode)
		}
	}
	return nil
}

// ReplaceFieldValues deletes parentID's existing field values and inserts
// values, enforcing the (parent_id, field_def_id, value_order) uniqueness
// invariant.
func ReplaceFieldValues(tx Execer, parentID string, values []FieldValue) error {
	if _, err := tx.Exec("DELETE FROM field_values WHERE parent_id = ?", parentID); err != nil {
		return superr.Wrap(superr.DatabaseCorrupt, err, "clearing field values for "+parentID)
	}
	for _, v := range values {
		if _, err := tx.Exec(`
			INSERT INTO field_values (tuple_id, parent_id, field_def_id, field_name, value_node_id, value_text, value_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, v.TupleID, v.ParentID, v.FieldDefID, v.FieldName, v.ValueNodeID, v.ValueText, v.ValueOrder); err != nil {
			return superr.Wrap(superr.DatabaseCorrupt, err, "inserting field value for "+parentID)
		}
	}
	return nil
}

// NodeExists reports whether id is a known node, used for delta detection
// and for dangling-parent handling (treat a missing parent as null, §3).
func NodeExists(q Queryer, id string) (bool, error) {
	var exists int
	err := q.QueryRow("SELECT 1 FROM nodes WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, superr.Wrap(superr.DatabaseCorrupt, err, "checking node existence "+id)
	}
	return true, nil
}

// GetNode fetches one node row by id.
func GetNode(q Queryer, id string) (*Node, error) {
	var n Node
	err := q.QueryRow(
		"SELECT id, name, parent_id, doc_type, created, updated, done_at, raw FROM nodes WHERE id = ?", id,
	).Scan(&n.ID, &n.Name, &n.ParentID, &n.DocType, &n.Created, &n.Updated, &n.DoneAt, &n.Raw)
	if err == sql.ErrNoRows {
		return nil, superr.Newf(superr.NodeNotFound, "no node with id %q", id)
	}
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching node "+id)
	}
	return &n, nil
}

// AllNodeIDs returns every node id currently stored, used by the indexer
// to compute the deleted partition of the delta.
func AllNodeIDs(q Queryer) (map[string]bool, error) {
	rows, err := q.Query("SELECT id FROM nodes")
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "listing node ids")
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning node id")
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// References returns the outbound references from a node.
func References(q Queryer, fromNode string) ([]Reference, error) {
	rows, err := q.Query("SELECT from_node, to_node, reference_type FROM node_refs WHERE from_node = ?", fromNode)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching references for "+fromNode)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var r Reference
		var rt sql.NullString
		if err := rows.Scan(&r.FromNode, &r.ToNode, &rt); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning reference row")
		}
		r.RefType = rt.String
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// TagApplicationsFor returns the tags applied to dataNode.
func TagApplicationsFor(q Queryer, dataNode string) ([]TagApplication, error) {
	rows, err := q.Query(
		"SELECT tuple_node_id, data_node_id, tag_id, tag_name FROM tag_applications WHERE data_node_id = ?",
		dataNode,
	)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching tag applications for "+dataNode)
	}
	defer rows.Close()

	var apps []TagApplication
	for rows.Next() {
		var a TagApplication
		var name sql.NullString
		if err := rows.Scan(&a.TupleNodeID, &a.DataNodeID, &a.TagID, &name); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning tag application row")
		}
		a.TagName = name.String
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// FieldValuesFor returns the field values anchored on parentID, ordered.
func FieldValuesFor(q Queryer, parentID string) ([]FieldValue, error) {
	rows, err := q.Query(`
		SELECT tuple_id, parent_id, field_def_id, field_name, value_node_id, value_text, value_order
		FROM field_values WHERE parent_id = ? ORDER BY field_def_id, value_order
	`, parentID)
	if err != nil {
		return nil, superr.Wrap(superr.DatabaseCorrupt, err, "fetching field values for "+parentID)
	}
	defer rows.Close()

	var values []FieldValue
	for rows.Next() {
		var v FieldValue
		if err := rows.Scan(&v.TupleID, &v.ParentID, &v.FieldDefID, &v.FieldName, &v.ValueNodeID, &v.ValueText, &v.ValueOrder); err != nil {
			return nil, superr.Wrap(superr.DatabaseCorrupt, err, "scanning field value row")
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
