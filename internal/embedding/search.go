package embedding

import (
	"context"

	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/query"
	"github.com/nbbaier/supertag/internal/store"
)

// SearchOptions tunes a semantic-search call.
type SearchOptions struct {
	K int
	// RestrictToFilter re-applies the content filter to candidates
	// before they're returned, dropping matches the filter would have
	// excluded from embedding in the first place.
	RestrictToFilter bool
	Filter           FilterOptions
	// AncestorMode, when not AncestorRaw, resolves each match up to its
	// tagged/named ancestor instead of returning the raw hit.
	AncestorMode query.AncestorMode
}

// SearchMatch is one semantic search result joined back to its node
// row, or to its resolved ancestor when AncestorMode requested one.
type SearchMatch struct {
	NodeID     string
	Name       string
	Distance   float64
	MatchCount int // >1 when several raw hits resolved to the same ancestor
}

// Search embeds queryText once, runs a KNN lookup against the
// workspace's vector store, optionally restricts results through the
// content filter, and joins the survivors back to node rows (or their
// resolved ancestor, when opts.AncestorMode asks for one).
func Search(ctx context.Context, s *store.Store, engine EmbeddingEngine, queryText string, opts SearchOptions) ([]SearchMatch, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Search")
	defer timer.Stop()

	k := opts.K
	if k <= 0 {
		k = 10
	}

	vec, err := engine.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	hits, err := s.Vector().Search(vec, k)
	if err != nil {
		return nil, err
	}

	distances := make(map[string]float64, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		n, err := store.GetNode(s.DB(), h.NodeID)
		if err != nil {
			continue
		}
		if opts.RestrictToFilter && !Selected(n, opts.Filter) {
			continue
		}
		distances[h.NodeID] = h.Distance
		ids = append(ids, h.NodeID)
	}

	resolved, err := query.ResolveAncestors(s.DB(), ids, opts.AncestorMode)
	if err != nil {
		return nil, err
	}

	// In AncestorRaw mode each resolved entry is exactly one raw hit, so
	// its distance carries over directly. In a resolving mode several
	// raw hits can collapse onto one ancestor; MatchCount reflects that
	// instead of a synthesized distance.
	matches := make([]SearchMatch, 0, len(resolved))
	for _, r := range resolved {
		matches = append(matches, SearchMatch{
			NodeID: r.NodeID, Name: r.Name, Distance: distances[r.NodeID], MatchCount: r.MatchCount,
		})
	}

	return matches, nil
}
