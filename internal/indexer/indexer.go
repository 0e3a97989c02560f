package indexer

import (
	"database/sql"
	"strings"
	"time"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/snapshot"
	"github.com/nbbaier/supertag/internal/store"
)

// IndexReport summarizes one index_snapshot run.
type IndexReport struct {
	Added         int
	Modified      int
	Deleted       int
	NodesTotal    int
	SupertagsTotal int
	FieldsTotal   int
	RefsTotal     int
	TagAppsTotal  int
	SkippedRecords int
	DurationMS    int64
	ExportFile    string
}

type attrDefInfo struct {
	id   string
	name string
}

type tagDefInfo struct {
	id      string
	name    string
	extends []string
	fields  []string // ordered attrDef ids, from tagDef.Children
}

// IndexSnapshot streams path into s, applying the add/modify/delete
// delta and re-deriving the supertag catalog, all in a single
// transaction under s's exclusive write lock.
func IndexSnapshot(s *store.Store, path string) (*IndexReport, error) {
	start := time.Now()
	timer := logging.StartTimer(logging.CategoryIndexer, "IndexSnapshot")
	defer timer.Stop()

	s.Lock()
	defer s.Unlock()

	report := &IndexReport{ExportFile: path}
	tagApps := make(map[string][]store.TagApplication)   // data_node_id -> apps
	fieldVals := make(map[string][]store.FieldValue)      // parent_id -> values
	refs := make(map[string][]store.Reference)            // from_node -> refs
	attrDefs := make(map[string]attrDefInfo)
	tagDefs := make(map[string]tagDefInfo)
	seen := make(map[string]bool)

	err := s.Tx(func(tx *sql.Tx) error {
		existingIDs, err := store.AllNodeIDs(tx)
		if err != nil {
			return err
		}

		err = snapshot.Each(path, func(rec snapshot.Record) error {
			raw, merr := marshalRecord(rec)
			if merr != nil {
				report.SkippedRecords++
				logging.Get(logging.CategoryIndexer).Warn("skipping malformed record %s: %v", rec.ID, merr)
				return nil
			}

			st, cerr := classify(rec, raw)
			if cerr != nil {
				report.SkippedRecords++
				logging.Get(logging.CategoryIndexer).Warn("skipping record %s: %v", rec.ID, cerr)
				return nil
			}

			seen[st.ID] = true

			existingNode, gerr := store.GetNode(tx, st.ID)
			existed := gerr == nil
			var existingRaw []byte
			if existed {
				existingRaw = existingNode.Raw
			}

			switch classifyDelta(existingRaw, existed, raw) {
			case added:
				report.Added++
			case modified:
				report.Modified++
			}

			if err := store.UpsertNode(tx, store.Node{
				ID:       st.ID,
				Name:     nullableString(st.Name),
				ParentID: nullableString(st.ParentID),
				DocType:  nullableString(st.DocType),
				Created:  nullableInt(st.Created),
				Updated:  nullableInt(st.Updated),
				DoneAt:   nullableInt(st.DoneAt),
				Raw:      raw,
			}); err != nil {
				return err
			}

			if len(st.Refs) > 0 {
				for _, r := range st.Refs {
					refs[st.ID] = append(refs[st.ID], store.Reference{FromNode: st.ID, ToNode: r.To, RefType: r.Type})
				}
			}

			switch st.DocType {
			case docTypeTagDef:
				tagDefs[st.ID] = tagDefInfo{id: st.ID, name: st.Name, extends: st.Extends, fields: st.Children}
			case docTypeAttrDef:
				attrDefs[st.ID] = attrDefInfo{id: st.ID, name: st.Name}
			case docTypeTuple:
				if st.TagID != "" {
					tagApps[st.ParentID] = append(tagApps[st.ParentID], store.TagApplication{
						TupleNodeID: st.ID, DataNodeID: st.ParentID, TagID: st.TagID, TagName: st.TagName,
					})
				}
				if st.FieldDefID != "" && strings.TrimSpace(st.ValueText) != "" {
					fieldVals[st.ParentID] = append(fieldVals[st.ParentID], store.FieldValue{
						TupleID:     nullableString(st.ID),
						ParentID:    st.ParentID,
						FieldDefID:  nullableString(st.FieldDefID),
						FieldName:   nullableString(st.FieldName),
						ValueNodeID: nullableString(st.ValueNode),
						ValueText:   nullableString(st.ValueText),
						ValueOrder:  len(fieldVals[st.ParentID]),
					})
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		for node := range existingIDs {
			if !seen[node] {
				if err := store.DeleteNodeCascade(tx, node); err != nil {
					return err
				}
				report.Deleted++
			}
		}

		for dataNode, apps := range tagApps {
			if err := store.ReplaceTagApplications(tx, dataNode, apps); err != nil {
				return err
			}
			report.TagAppsTotal += len(apps)
		}
		for parent, vals := range fieldVals {
			if err := store.ReplaceFieldValues(tx, parent, vals); err != nil {
				return err
			}
			report.FieldsTotal += len(vals)
		}
		for from, rs := range refs {
			if err := store.ReplaceReferences(tx, from, rs); err != nil {
				return err
			}
			report.RefsTotal += len(rs)
		}

		if err := deriveSupertags(tx, tagDefs, attrDefs); err != nil {
			return err
		}
		report.SupertagsTotal = len(tagDefs)

		if err := store.RebuildFTS(tx); err != nil {
			return err
		}

		total, err := store.AllNodeIDs(tx)
		if err != nil {
			return err
		}
		report.NodesTotal = len(total)

		return nil
	})
	if err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "indexing snapshot "+path)
	}

	report.DurationMS = time.Since(start).Milliseconds()
	return report, nil
}

// deriveSupertags re-derives supertag_metadata, supertag_fields, and
// supertag_parents from the tagDef/attrDef records seen in this pass.
// Parent edges that would close a cycle are rejected and logged, not
// fatal to the transaction.
func deriveSupertags(tx *sql.Tx, tagDefs map[string]tagDefInfo, attrDefs map[string]attrDefInfo) error {
	edges, err := store.AllParentEdges(tx)
	if err != nil {
		return err
	}

	for id, td := range tagDefs {
		if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{
			TagID: id, TagName: td.name, NormalizedName: schema.Normalize(td.name),
		}); err != nil {
			return err
		}
		if err := store.ClearSupertagFields(tx, id); err != nil {
			return err
		}
		if err := store.ClearSupertagParents(tx, id); err != nil {
			return err
		}
		edges[id] = nil

		order := 0
		for _, childID := range td.fields {
			attr, ok := attrDefs[childID]
			if !ok {
				continue
			}
			if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{
				TagID:             id,
				FieldName:         attr.name,
				FieldLabelID:      attr.id,
				FieldOrder:        order,
				NormalizedName:    schema.Normalize(attr.name),
				InferredDataType:  string(schema.InferDataType(attr.name)),
			}); err != nil {
				return err
			}
			order++
		}

		for _, parent := range td.extends {
			if wouldCycle(edges, id, parent) {
				logging.Get(logging.CategoryIndexer).Warn(
					"rejecting supertag parent edge %s -> %s: would close a cycle", id, parent)
				continue
			}
			if err := store.InsertSupertagParent(tx, id, parent); err != nil {
				return err
			}
			edges[id] = append(edges[id], parent)
		}
	}
	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
