package mcp

import (
	"context"
	"sync"

	"github.com/nbbaier/supertag/internal/embedding"
	"github.com/nbbaier/supertag/internal/store"
)

// lazyEngine builds the embedding engine once per process, the same
// way the webhook surface does: engine construction may dial out, so
// it shouldn't happen per tool call.
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

func semanticSearch(ctx context.Context, s *store.Store, engine embedding.EmbeddingEngine, q string, k int) ([]nodeResult, error) {
	matches, err := embedding.Search(ctx, s, engine, q, embedding.SearchOptions{K: k})
	if err != nil {
		return nil, err
	}
	out := make([]nodeResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, nodeResult{ID: m.NodeID, Name: m.Name})
	}
	return out, nil
}

func ftsSearch(s *store.Store, q string, limit int) ([]nodeResult, error) {
	ids, err := s.SearchFTS(q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]nodeResult, 0, len(ids))
	for _, id := range ids {
		n, err := store.GetNode(s.DB(), id)
		if err != nil || n == nil {
			continue
		}
		r := nodeResult{ID: n.ID}
		if n.Name.Valid {
			r.Name = n.Name.String
		}
		if n.DocType.Valid {
			r.DocType = n.DocType.String
		}
		out = append(out, r)
	}
	return out, nil
}

func childIDs(s *store.Store, parentID string) ([]string, error) {
	rows, err := s.DB().Query(`SELECT id FROM nodes WHERE parent_id = ? AND (doc_type IS NULL OR doc_type != 'tuple') ORDER BY id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// loadNodeTree loads id and, while depth > 0, its children recursively.
func loadNodeTree(s *store.Store, id string, depth int) (*nodeResult, error) {
	n, err := store.GetNode(s.DB(), id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	r := &nodeResult{ID: n.ID}
	if n.Name.Valid {
		r.Name = n.Name.String
	}
	if n.DocType.Valid {
		r.DocType = n.DocType.String
	}
	if depth <= 0 {
		return r, nil
	}
	ids, err := childIDs(s, id)
	if err != nil {
		return nil, err
	}
	for _, cid := range ids {
		child, err := loadNodeTree(s, cid, depth-1)
		if err != nil {
			return nil, err
		}
		if child != nil {
			r.Children = append(r.Children, *child)
		}
	}
	return r, nil
}
