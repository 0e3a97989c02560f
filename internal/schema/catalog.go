package schema

import (
	"encoding/json"
	"os"
	"path/filepath"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// CatalogDocument is the stable, versioned export of the supertag
// tables. Field order within each
// supertag is preserved as encoded; consumers should not re-sort.
type CatalogDocument struct {
	Version   int                `json:"version"`
	Supertags []CatalogSupertag `json:"supertags"`
}

// CatalogSupertag is one supertag entry in a CatalogDocument.
type CatalogSupertag struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	NormalizedName string          `json:"normalized_name"`
	Description    *string         `json:"description,omitempty"`
	Color          *string         `json:"color,omitempty"`
	Extends        []string        `json:"extends,omitempty"`
	Fields         []CatalogField  `json:"fields"`
}

// CatalogField is one field entry within a CatalogSupertag.
type CatalogField struct {
	AttributeID    string    `json:"attribute_id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Description    *string   `json:"description,omitempty"`
	DataType       *DataType `json:"data_type,omitempty"`
}

// ToCatalogDocument serializes the given supertags into a stable
// document. Absent-vs-empty-string is preserved: a zero-value Description/Color
// becomes a nil pointer (absent), not an empty string, so round-trip
// through JSON preserves that distinction.
func ToCatalogDocument(supertags []*Supertag) CatalogDocument {
	doc := CatalogDocument{Version: 1, Supertags: make([]CatalogSupertag, 0, len(supertags))}
	for _, s := range supertags {
		cs := CatalogSupertag{
			ID:             s.ID,
			Name:           s.Name,
			NormalizedName: s.NormalizedName,
			Description:    nonEmpty(s.Description),
			Color:          nonEmpty(s.Color),
			Extends:        s.Parents,
			Fields:         make([]CatalogField, 0, len(s.Fields)),
		}
		for _, f := range s.Fields {
			dt := f.DataType
			cs.Fields = append(cs.Fields, CatalogField{
				AttributeID:    f.AttributeID,
				Name:           f.Name,
				NormalizedName: f.NormalizedName,
				Description:    nonEmpty(f.Description),
				DataType:       &dt,
			})
		}
		doc.Supertags = append(doc.Supertags, cs)
	}
	return doc
}

// FromCatalogDocument reconstructs Supertag values from a document
// previously produced by ToCatalogDocument. Fields not representable in
// the catalog subset (Color on Field, own-vs-inherited split) are left
// at zero value, matching the "round trip restricted to catalog fields"
// contract callers rely on for round-tripping.
func FromCatalogDocument(doc CatalogDocument) []*Supertag {
	out := make([]*Supertag, 0, len(doc.Supertags))
	for _, cs := range doc.Supertags {
		s := &Supertag{
			ID:             cs.ID,
			Name:           cs.Name,
			NormalizedName: cs.NormalizedName,
			Parents:        cs.Extends,
		}
		if cs.Description != nil {
			s.Description = *cs.Description
		}
		if cs.Color != nil {
			s.Color = *cs.Color
		}
		for _, cf := range cs.Fields {
			f := Field{
				AttributeID:    cf.AttributeID,
				Name:           cf.Name,
				NormalizedName: cf.NormalizedName,
			}
			if cf.Description != nil {
				f.Description = *cf.Description
			}
			if cf.DataType != nil {
				f.DataType = *cf.DataType
			}
			s.Fields = append(s.Fields, f)
		}
		out = append(out, s)
	}
	return out
}

// WriteCatalogDocument serializes doc as indented JSON and writes it to
// path via write-then-rename, so a reader never observes a partial
// schema cache file.
func WriteCatalogDocument(path string, doc CatalogDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return superr.Wrap(superr.InternalError, err, "marshaling schema catalog document")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return superr.Wrap(superr.InternalError, err, "creating schema cache directory "+dir)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return superr.Wrap(superr.InternalError, err, "writing schema cache temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return superr.Wrap(superr.InternalError, err, "renaming schema cache temp file")
	}
	return nil
}

// ReadCatalogDocument reads and parses a schema catalog document
// previously written by WriteCatalogDocument.
func ReadCatalogDocument(path string) (CatalogDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogDocument{}, superr.Wrap(superr.InternalError, err, "reading schema cache "+path)
	}
	var doc CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return CatalogDocument{}, superr.Wrap(superr.InvalidFormat, err, "parsing schema cache "+path)
	}
	return doc, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
