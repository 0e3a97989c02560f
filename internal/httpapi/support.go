package httpapi

import (
	"context"
	"strings"
	"sync"

	"github.com/nbbaier/supertag/internal/embedding"
	"github.com/nbbaier/supertag/internal/store"
)

// NodeSummary is the JSON/text-rendered shape for a node in search,
// nodes, and refs responses.
type NodeSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	DocType string `json:"doc_type,omitempty"`
}

func loadNodeSummaries(db store.Queryer, ids []string) []NodeSummary {
	out := make([]NodeSummary, 0, len(ids))
	for _, id := range ids {
		n, err := store.GetNode(db, id)
		if err != nil || n == nil {
			continue
		}
		s := NodeSummary{ID: n.ID}
		if n.Name.Valid {
			s.Name = n.Name.String
		}
		if n.DocType.Valid {
			s.DocType = n.DocType.String
		}
		out = append(out, s)
	}
	return out
}

// renderNodes is the default paste-format rendering: one line per node,
// "id\tname".
func renderNodes(nodes []NodeSummary) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.ID)
		b.WriteString("\t")
		b.WriteString(n.Name)
		b.WriteString("\n")
	}
	return b.String()
}

// semanticMatch is the JSON/text shape for a /semantic-search hit.
type semanticMatch struct {
	NodeID     string  `json:"node_id"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance,omitempty"`
	MatchCount int     `json:"match_count"`
}

// embeddingEngine lazily builds the embedding engine from the pool's
// config, caching it for the process lifetime: engine construction may
// dial out (genai) or just record an endpoint (ollama), and either way
// should happen once, not per request.
type lazyEngine struct {
	mu     sync.Mutex
	engine embedding.EmbeddingEngine
	err    error
	built  bool
}

func (d *Deps) embeddingEngine() (embedding.EmbeddingEngine, error) {
	d.onceEngine.mu.Lock()
	defer d.onceEngine.mu.Unlock()
	if d.onceEngine.built {
		return d.onceEngine.engine, d.onceEngine.err
	}
	d.onceEngine.built = true
	cfg := embedding.Config{
		Provider:       d.Config.Embedding.Provider,
		OllamaEndpoint: d.Config.Embedding.OllamaEndpoint,
		OllamaModel:    d.Config.Embedding.OllamaModel,
		GenAIAPIKey:    d.Config.Embedding.GenAIAPIKey,
		GenAIModel:     d.Config.Embedding.GenAIModel,
	}
	d.onceEngine.engine, d.onceEngine.err = embedding.NewEngine(cfg)
	return d.onceEngine.engine, d.onceEngine.err
}

func embeddingSearch(ctx context.Context, s *store.Store, engine embedding.EmbeddingEngine, q string, k int) ([]semanticMatch, error) {
	matches, err := embedding.Search(ctx, s, engine, q, embedding.SearchOptions{K: k})
	if err != nil {
		return nil, err
	}
	out := make([]semanticMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, semanticMatch{NodeID: m.NodeID, Name: m.Name, Distance: m.Distance, MatchCount: m.MatchCount})
	}
	return out, nil
}
