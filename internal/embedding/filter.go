package embedding

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nbbaier/supertag/internal/indexer"
	"github.com/nbbaier/supertag/internal/store"
)

// FilterOptions adjusts the content filter's defaults.
type FilterOptions struct {
	// MinLength overrides the default minimum name length (3). Entities
	// bypass this check regardless of its value.
	MinLength int
	// EntitiesOnly restricts selection to nodes the entity heuristic
	// (props._entity_override == true, or props.flags is odd) accepts.
	EntitiesOnly bool
}

// DefaultFilterOptions returns the content filter's published defaults.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinLength: 3}
}

var importArtifactPrefix = "1970-01-01"
var referenceSyntaxPattern = regexp.MustCompile(`\[\[.*\]\]`)

type nodeProps struct {
	EntityOverride bool        `json:"_entity_override"`
	Flags          json.Number `json:"flags"`
}

// Selected reports whether n passes the content filter: it has a name
// of sufficient length (unless it's an entity), isn't an import
// artifact or reference-syntax fragment, and isn't a system doc type.
func Selected(n *store.Node, opts FilterOptions) bool {
	if !n.Name.Valid {
		return false
	}
	name := n.Name.String

	entity := isEntity(n)
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = 3
	}
	if !entity && len(name) < minLen {
		return false
	}
	if opts.EntitiesOnly && !entity {
		return false
	}

	if strings.HasPrefix(name, importArtifactPrefix) {
		return false
	}
	if referenceSyntaxPattern.MatchString(name) {
		return false
	}

	if n.DocType.Valid && indexer.IsSystemDocType(n.DocType.String) {
		return false
	}

	return true
}

// isEntity applies the entity heuristic to n's raw props: an explicit
// override flag, or an odd-valued flags bitfield.
func isEntity(n *store.Node) bool {
	if len(n.Raw) == 0 {
		return false
	}
	var rec struct {
		Props nodeProps `json:"props"`
	}
	if err := json.Unmarshal(n.Raw, &rec); err != nil {
		return false
	}
	if rec.Props.EntityOverride {
		return true
	}
	if rec.Props.Flags == "" {
		return false
	}
	flags, err := rec.Props.Flags.Int64()
	if err != nil {
		return false
	}
	return flags%2 == 1
}
