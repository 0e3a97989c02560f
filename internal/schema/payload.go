package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// PayloadChild is one node in a write-sink payload's children tree.
type PayloadChild struct {
	Name     string         `json:"name,omitempty"`
	DataType string         `json:"data_type,omitempty"`
	Children []PayloadChild `json:"children,omitempty"`
}

// Payload is the write-sink request body built by BuildPayload
// for sending a new node to the write sink.
type Payload struct {
	Name      string         `json:"name"`
	Supertags []PayloadTagID `json:"supertags"`
	Children  []PayloadChild `json:"children,omitempty"`
}

// PayloadTagID references a resolved supertag by id.
type PayloadTagID struct {
	ID string `json:"id"`
}

var nodeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)

// BuildPayload resolves tagNames (accepting a slice or a comma-separated
// string upstream — callers normalize to a slice first), dedupes them,
// unions their AllFields sets, and maps the provided field values onto
// typed payload children per the inference-driven data type rules.
// Fields not found by normalized name are silently dropped.
func (svc *Service) BuildPayload(tagNames []string, nodeName string, values map[string]interface{}) (*Payload, error) {
	seenTag := make(map[string]bool)
	var tags []*Supertag
	for _, name := range tagNames {
		s, err := svc.GetSupertag(name)
		if err != nil {
			return nil, err
		}
		if seenTag[s.ID] {
			continue
		}
		seenTag[s.ID] = true
		tags = append(tags, s)
	}

	union := make(map[string]Field) // normalized name -> field, first occurrence wins
	var unionOrder []string
	for _, t := range tags {
		fields, err := svc.AllFields(t.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			if _, ok := union[f.NormalizedName]; ok {
				continue
			}
			union[f.NormalizedName] = f
			unionOrder = append(unionOrder, f.NormalizedName)
		}
	}

	p := &Payload{Name: nodeName}
	for _, t := range tags {
		p.Supertags = append(p.Supertags, PayloadTagID{ID: t.ID})
	}

	for fieldName, raw := range values {
		f, ok := union[Normalize(fieldName)]
		if !ok {
			continue // graceful degradation: unknown field is dropped, not an error
		}
		child := PayloadChild{Name: f.AttributeID}
		if vals, ok := toValueChildren(f.DataType, raw); ok {
			child.Children = vals
			p.Children = append(p.Children, child)
		}
	}
	return p, nil
}

// toValueChildren renders raw into one child per value, typed per
// field's inferred data type.
func toValueChildren(dt DataType, raw interface{}) ([]PayloadChild, bool) {
	if arr, ok := raw.([]interface{}); ok {
		var out []PayloadChild
		for _, v := range arr {
			out = append(out, valueChild(dt, v))
		}
		return out, len(out) > 0
	}
	return []PayloadChild{valueChild(dt, raw)}, true
}

func valueChild(dt DataType, raw interface{}) PayloadChild {
	switch dt {
	case DataTypeDate:
		return PayloadChild{DataType: "date", Name: stringify(raw)}
	case DataTypeURL:
		return PayloadChild{DataType: "url", Name: stringify(raw)}
	case DataTypeReference:
		s := stringify(raw)
		if nodeIDPattern.MatchString(s) {
			return PayloadChild{DataType: "reference", Name: s}
		}
		return PayloadChild{Name: s}
	case DataTypeCheckbox:
		return PayloadChild{Name: stringify(toBool(raw))}
	case DataTypeNumber:
		return PayloadChild{Name: stringify(raw)}
	default:
		return PayloadChild{Name: stringify(raw)}
	}
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toBool(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true")
	default:
		return false
	}
}
