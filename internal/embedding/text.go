package embedding

import (
	"strings"

	"github.com/nbbaier/supertag/internal/store"
)

// maxAncestorSnippetDepth bounds how many named ancestors get folded
// into a node's embedded text, so one very deep chain can't dominate
// the request size of an otherwise small batch.
const maxAncestorSnippetDepth = 3

// BuildText assembles the text actually sent to the embedding engine:
// the node's own name, plus a bounded trail of its named ancestors'
// names (closest first), separated by " / ". Ancestors without a name
// are skipped rather than breaking the walk.
func BuildText(db store.Queryer, n *store.Node) (string, error) {
	parts := []string{}
	if n.Name.Valid && n.Name.String != "" {
		parts = append(parts, n.Name.String)
	}

	current := n.ParentID
	for depth := 0; depth < maxAncestorSnippetDepth && current.Valid && current.String != ""; depth++ {
		parent, err := store.GetNode(db, current.String)
		if err != nil {
			break
		}
		if parent.Name.Valid && parent.Name.String != "" {
			parts = append(parts, parent.Name.String)
		}
		current = parent.ParentID
	}

	return strings.Join(parts, " / "), nil
}
