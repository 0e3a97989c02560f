package query

import (
	"github.com/nbbaier/supertag/internal/store"
)

// AncestorMode selects how raw full-text matches are resolved to
// semantically meaningful nodes before being returned to a caller.
type AncestorMode int

const (
	// AncestorRaw returns matches as-is, no resolution.
	AncestorRaw AncestorMode = iota
	// AncestorTagged walks parent_id upward from each match until a node
	// carrying any tag application is found.
	AncestorTagged
	// AncestorNamed walks parent_id upward until a node with a non-null
	// name is found.
	AncestorNamed
)

// ResolvedAncestor is one deduplicated ancestor plus how many raw
// matches resolved up to it.
type ResolvedAncestor struct {
	NodeID     string
	Name       string
	Tags       []string
	MatchCount int
}

// ResolveAncestors walks each id in matchIDs upward per mode, dedupes
// the resulting ancestor set, and counts how many matches landed on
// each one.
func ResolveAncestors(db store.Queryer, matchIDs []string, mode AncestorMode) ([]ResolvedAncestor, error) {
	if mode == AncestorRaw {
		out := make([]ResolvedAncestor, 0, len(matchIDs))
		for _, id := range matchIDs {
			n, err := store.GetNode(db, id)
			if err != nil {
				continue
			}
			out = append(out, ResolvedAncestor{NodeID: id, Name: n.Name.String, MatchCount: 1})
		}
		return out, nil
	}

	counts := make(map[string]int)
	order := make([]string, 0, len(matchIDs))
	for _, id := range matchIDs {
		anchor, err := walkToAncestor(db, id, mode)
		if err != nil || anchor == "" {
			continue
		}
		if counts[anchor] == 0 {
			order = append(order, anchor)
		}
		counts[anchor]++
	}

	out := make([]ResolvedAncestor, 0, len(order))
	for _, id := range order {
		n, err := store.GetNode(db, id)
		if err != nil {
			continue
		}
		ra := ResolvedAncestor{NodeID: id, MatchCount: counts[id]}
		if n.Name.Valid {
			ra.Name = n.Name.String
		}
		if mode == AncestorTagged {
			apps, err := store.TagApplicationsFor(db, id)
			if err == nil {
				for _, a := range apps {
					ra.Tags = append(ra.Tags, a.TagName)
				}
			}
		}
		out = append(out, ra)
	}
	return out, nil
}

// walkToAncestor follows parent_id upward from id until it finds a node
// satisfying mode's stop condition, or runs out of parents. A cap
// guards against a corrupt/cyclic parent chain.
func walkToAncestor(db store.Queryer, id string, mode AncestorMode) (string, error) {
	current := id
	for i := 0; i < 1000; i++ {
		n, err := store.GetNode(db, current)
		if err != nil {
			return "", nil
		}

		switch mode {
		case AncestorTagged:
			apps, err := store.TagApplicationsFor(db, current)
			if err == nil && len(apps) > 0 {
				return current, nil
			}
		case AncestorNamed:
			if n.Name.Valid && n.Name.String != "" {
				return current, nil
			}
		}

		if !n.ParentID.Valid || n.ParentID.String == "" {
			return current, nil
		}
		current = n.ParentID.String
	}
	return current, nil
}
