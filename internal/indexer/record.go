// Package indexer projects a snapshot into the relational+FTS store and
// re-derives the supertag catalog, atomically and incrementally. Modeled
// on codenerd's internal/embedding batch-and-commit pipeline style, with
// the actual projection rules specific to the note-graph snapshot shape.
package indexer

import (
	"encoding/json"

	"github.com/nbbaier/supertag/internal/snapshot"
)

// marshalRecord re-serializes rec (id, props, children) with
// json.Marshal into a canonical byte form, stored as the node's raw
// column and used as the delta-comparison basis. The snapshot's
// original bytes are not kept: map keys come out sorted, numbers pass
// through float64, and top-level keys other than id, props and
// children are dropped.
func marshalRecord(rec snapshot.Record) ([]byte, error) {
	return json.Marshal(struct {
		ID       string                 `json:"id"`
		Props    map[string]interface{} `json:"props"`
		Children []string               `json:"children,omitempty"`
	}{ID: rec.ID, Props: rec.Props, Children: rec.Children})
}

// docType values that carry special projection meaning. Anything else
// still becomes a nodes row; only these feed the derived tables.
const (
	docTypeTagDef  = "tagDef"
	docTypeAttrDef = "attrDef"
	docTypeTuple   = "tuple"
)

// systemDocTypes are excluded from the embedding content filter
// by default but are still stored as ordinary node rows.
var systemDocTypes = map[string]bool{
	"tuple": true, "metanode": true, "viewDef": true, "search": true,
	"command": true, "hotkey": true, "tagDef": true, "attrDef": true,
	"associatedData": true, "visual": true, "journalPart": true,
	"group": true, "chatbot": true, "workspace": true,
}

// IsSystemDocType reports whether docType is excluded from embedding
// selection by default.
func IsSystemDocType(docType string) bool { return systemDocTypes[docType] }

// staged is the normalized view of one snapshot record before delta
// computation, carrying everything downstream derivation steps need.
type staged struct {
	ID       string
	Name     string
	ParentID string
	DocType  string
	Created  int64
	Updated  int64
	DoneAt   int64
	Raw      []byte
	Children []string

	// tuple-only fields
	TagID      string
	TagName    string
	FieldDefID string
	FieldName  string
	ValueNode  string
	ValueText  string

	// tagDef-only
	Extends []string

	// reference edges declared on this record, if any
	Refs []refEdge
}

type refEdge struct {
	To   string
	Type string
}

func classify(rec snapshot.Record, raw []byte) (staged, error) {
	s := staged{ID: rec.ID, Raw: raw, Children: rec.Children}

	if v, ok := rec.Props["name"]; ok {
		s.Name, _ = v.(string)
	}
	if v, ok := rec.Props["_docType"]; ok {
		s.DocType, _ = v.(string)
	}
	if v, ok := rec.Props["parent_id"]; ok {
		s.ParentID, _ = v.(string)
	}
	s.Created = intProp(rec.Props, "created")
	s.Updated = intProp(rec.Props, "updated")
	s.DoneAt = intProp(rec.Props, "done_at")

	if arr, ok := rec.Props["refs"].([]interface{}); ok {
		for _, e := range arr {
			m, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			to, _ := m["to"].(string)
			if to == "" {
				continue
			}
			refType, _ := m["type"].(string)
			s.Refs = append(s.Refs, refEdge{To: to, Type: refType})
		}
	}

	switch s.DocType {
	case docTypeTagDef:
		if arr, ok := rec.Props["extends"].([]interface{}); ok {
			for _, e := range arr {
				if id, ok := e.(string); ok {
					s.Extends = append(s.Extends, id)
				}
			}
		}
	case docTypeTuple:
		s.TagID, _ = rec.Props["tag_id"].(string)
		s.TagName, _ = rec.Props["tag_name"].(string)
		s.FieldDefID, _ = rec.Props["field_def_id"].(string)
		s.FieldName, _ = rec.Props["field_name"].(string)
		s.ValueNode, _ = rec.Props["value_node_id"].(string)
		s.ValueText, _ = rec.Props["value_text"].(string)
	}

	return s, nil
}

func intProp(props map[string]interface{}, key string) int64 {
	v, ok := props[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
