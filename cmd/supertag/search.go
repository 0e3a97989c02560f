package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/embedding"
	"github.com/nbbaier/supertag/internal/store"
)

var (
	searchSemantic bool
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text or semantic search over indexed node names and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		q := args[0]
		limit := searchLimit
		if limit <= 0 {
			limit = 20
		}

		var ids []string
		if searchSemantic {
			engine, err := app.embeddingEngine()
			if err != nil {
				return err
			}
			matches, err := embedding.Search(cmd.Context(), s, engine, q, embedding.SearchOptions{K: limit})
			if err != nil {
				return err
			}
			printResult(matches, func() string { return renderSemanticMatches(matches) })
			return nil
		}
		ids, err = s.SearchFTS(q, limit)
		if err != nil {
			return err
		}
		nodes := make([]*store.Node, 0, len(ids))
		for _, id := range ids {
			n, err := store.GetNode(s.DB(), id)
			if err != nil || n == nil {
				continue
			}
			nodes = append(nodes, n)
		}
		printResult(nodes, func() string { return renderNodeTable(nodes) })
		return nil
	},
}

func renderNodeTable(nodes []*store.Node) string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		name, docType := "", ""
		if n.Name.Valid {
			name = n.Name.String
		}
		if n.DocType.Valid {
			docType = n.DocType.String
		}
		rows = append(rows, []string{n.ID, name, docType})
	}
	if len(rows) == 0 {
		return "no matches"
	}
	return table([]string{"ID", "NAME", "TYPE"}, rows)
}

func renderSemanticMatches(matches []embedding.SearchMatch) string {
	if len(matches) == 0 {
		return "no matches"
	}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.NodeID, m.Name, fmt.Sprintf("%.4f", m.Distance)})
	}
	return table([]string{"ID", "NAME", "DISTANCE"}, rows)
}

// embeddingEngine builds the search-time embedding engine lazily,
// since construction may dial out to a local model server.
func (a *App) embeddingEngine() (embedding.EmbeddingEngine, error) {
	a.engineOnce.mu.Lock()
	defer a.engineOnce.mu.Unlock()
	if a.engineOnce.built {
		return a.engineOnce.engine, a.engineOnce.err
	}
	a.engineOnce.built = true
	a.engineOnce.engine, a.engineOnce.err = embedding.NewEngine(embedding.Config{
		Provider:       a.Config.Embedding.Provider,
		OllamaEndpoint: a.Config.Embedding.OllamaEndpoint,
		OllamaModel:    a.Config.Embedding.OllamaModel,
		GenAIAPIKey:    a.Config.Embedding.GenAIAPIKey,
		GenAIModel:     a.Config.Embedding.GenAIModel,
	})
	return a.engineOnce.engine, a.engineOnce.err
}

func init() {
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "Use the vector index instead of full-text search")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
}
