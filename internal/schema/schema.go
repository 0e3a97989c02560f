// Package schema implements the read-side view of the supertag catalog:
// name/id lookup, substring search, inheritance closure with diamond
// dedup, field resolution, and catalog document serialization.
package schema

import (
	"regexp"
	"sort"
	"strings"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/store"
)

// Field is a resolved supertag field, own or inherited.
type Field struct {
	AttributeID      string
	Name             string
	NormalizedName   string
	Description      string
	DataType         DataType
	Order            int
	TargetSupertagID string
	DefaultValueID   string
	Depth            int // 0 = own field, 1 = parent, 2 = grandparent, ...
}

// Supertag is a resolved supertag with its own fields and parent ids.
type Supertag struct {
	ID             string
	Name           string
	NormalizedName string
	Description    string
	Color          string
	Parents        []string
	Fields         []Field
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases and strips non-alphanumeric characters, the
// normalized-name form used throughout the catalog.
func Normalize(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "")
}

// Service is a read-only view over a workspace's supertag tables.
// Every method is referentially transparent over the store state at
// call time.
type Service struct {
	q store.Queryer
}

// New builds a Service reading from q (typically a *sql.DB).
func New(q store.Queryer) *Service {
	return &Service{q: q}
}

// GetSupertag resolves name by exact match first, then normalized form.
func (svc *Service) GetSupertag(name string) (*Supertag, error) {
	all, err := store.AllSupertagMeta(svc.q)
	if err != nil {
		return nil, err
	}
	norm := Normalize(name)
	var byNorm *store.SupertagMetaRow
	for i := range all {
		if all[i].TagName == name {
			return svc.build(all[i])
		}
		if all[i].NormalizedName == norm && byNorm == nil {
			byNorm = &all[i]
		}
	}
	if byNorm != nil {
		return svc.build(*byNorm)
	}
	return nil, superr.Newf(superr.TagNotFound, "no supertag named %q", name)
}

// GetSupertagByID resolves a supertag by its tag id.
func (svc *Service) GetSupertagByID(id string) (*Supertag, error) {
	row, err := store.GetSupertagMeta(svc.q, id)
	if err != nil {
		return nil, err
	}
	return svc.build(*row)
}

// ListSupertags returns every supertag, ordered by name.
func (svc *Service) ListSupertags() ([]*Supertag, error) {
	all, err := store.AllSupertagMeta(svc.q)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TagName < all[j].TagName })

	out := make([]*Supertag, 0, len(all))
	for _, row := range all {
		s, err := svc.build(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SearchSupertags does a case-insensitive substring match on name and
// normalized name.
func (svc *Service) SearchSupertags(query string) ([]*Supertag, error) {
	all, err := store.AllSupertagMeta(svc.q)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	var out []*Supertag
	for _, row := range all {
		if strings.Contains(strings.ToLower(row.TagName), q) || strings.Contains(row.NormalizedName, q) {
			s, err := svc.build(row)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Fields returns tagID's own fields, ordered by field_order.
func (svc *Service) Fields(tagID string) ([]Field, error) {
	rows, err := store.SupertagFieldsFor(svc.q, tagID)
	if err != nil {
		return nil, err
	}
	return toFields(rows, 0), nil
}

// AllFields returns tagID's own fields plus inherited fields, deduped by
// normalized field name with the shallowest-depth (closest to tagID)
// occurrence winning.
func (svc *Service) AllFields(tagID string) ([]Field, error) {
	order, depths, err := svc.inheritanceClosure(tagID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Field
	for _, id := range order {
		rows, err := store.SupertagFieldsFor(svc.q, id)
		if err != nil {
			return nil, err
		}
		for _, f := range toFields(rows, depths[id]) {
			if seen[f.NormalizedName] {
				continue
			}
			seen[f.NormalizedName] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FieldByNormalizedName resolves name (already normalized form expected
// or raw; both are tried) against AllFields(tagID).
func (svc *Service) FieldByNormalizedName(tagID, name string) (*Field, error) {
	fields, err := svc.AllFields(tagID)
	if err != nil {
		return nil, err
	}
	norm := Normalize(name)
	for i := range fields {
		if fields[i].NormalizedName == norm {
			return &fields[i], nil
		}
	}
	return nil, superr.Newf(superr.FieldUnknown, "no field %q on supertag %s", name, tagID)
}

// inheritanceClosure does a breadth-first walk from tagID, following
// parent edges, deduping diamonds by tag id, and recording the depth at
// which each tag id was first reached (the shallowest occurrence
// wins on conflict). order[0] is always tagID itself, at depth 0.
func (svc *Service) inheritanceClosure(tagID string) (order []string, depths map[string]int, err error) {
	depths = map[string]int{tagID: 0}
	order = []string{tagID}

	queue := []string{tagID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		parents, err := store.ParentsOf(svc.q, next)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range parents {
			if _, ok := depths[p]; ok {
				continue
			}
			depths[p] = depths[next] + 1
			order = append(order, p)
			queue = append(queue, p)
		}
	}
	return order, depths, nil
}

func (svc *Service) build(row store.SupertagMetaRow) (*Supertag, error) {
	parents, err := store.ParentsOf(svc.q, row.TagID)
	if err != nil {
		return nil, err
	}
	fields, err := svc.Fields(row.TagID)
	if err != nil {
		return nil, err
	}
	return &Supertag{
		ID:             row.TagID,
		Name:           row.TagName,
		NormalizedName: row.NormalizedName,
		Description:    row.Description.String,
		Color:          row.Color.String,
		Parents:        parents,
		Fields:         fields,
	}, nil
}

func toFields(rows []store.SupertagFieldRow, depth int) []Field {
	out := make([]Field, 0, len(rows))
	for _, r := range rows {
		out = append(out, Field{
			AttributeID:      r.FieldLabelID,
			Name:             r.FieldName,
			NormalizedName:   r.NormalizedName,
			Description:      r.Description.String,
			DataType:         DataType(r.InferredDataType),
			Order:            r.FieldOrder,
			TargetSupertagID: r.TargetSupertagID.String,
			DefaultValueID:   r.DefaultValueID.String,
			Depth:            depth,
		})
	}
	return out
}
