package query

import (
	"database/sql"

	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
)

// row is the denormalized view of one candidate node the planner
// evaluates where-clauses against. Loaded per candidate rather than
// joined in SQL, mirroring the filter-then-predicate split of
// beads' query evaluator: cheap candidate selection pushed to SQL,
// per-field comparisons evaluated in Go against the loaded row.
type row struct {
	id          string
	name        sql.NullString
	parentID    sql.NullString
	created     sql.NullInt64
	updated     sql.NullInt64
	doneAt      sql.NullInt64
	tags        []string // tag names applied to this node
	fieldValues map[string][]string // normalized field name -> values, in order
	parentName  sql.NullString
	parentTags  []string
}

// loadRow builds a row for node id, resolving field values by custom
// field name (not the fields.-prefixed form; see resolvedValues) and
// the parent's own name/tags for parent.name / parent.tags references.
func loadRow(q store.Queryer, n *store.Node) (*row, error) {
	r := &row{
		id: n.ID, name: n.Name, parentID: n.ParentID,
		created: n.Created, updated: n.Updated, doneAt: n.DoneAt,
		fieldValues: make(map[string][]string),
	}

	apps, err := store.TagApplicationsFor(q, n.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		r.tags = append(r.tags, a.TagName)
	}

	values, err := store.FieldValuesFor(q, n.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if !v.FieldName.Valid || !v.ValueText.Valid {
			continue
		}
		key := schema.Normalize(v.FieldName.String)
		r.fieldValues[key] = append(r.fieldValues[key], v.ValueText.String)
	}

	if n.ParentID.Valid {
		if parent, err := store.GetNode(q, n.ParentID.String); err == nil {
			r.parentName = parent.Name
			if papps, err := store.TagApplicationsFor(q, parent.ID); err == nil {
				for _, a := range papps {
					r.parentTags = append(r.parentTags, a.TagName)
				}
			}
		}
	}

	return r, nil
}
