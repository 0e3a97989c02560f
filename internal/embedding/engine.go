// Package embedding maintains a vector per interesting node and answers
// KNN queries: a content filter selects which nodes are worth embedding,
// a pluggable EmbeddingEngine turns text into vectors, and a batched
// generation pass writes them to the workspace's vector store with
// SHA-256 change detection so unchanged nodes never cost an external
// call twice. Modeled on codenerd's internal/embedding engine interface
// and provider split.
package embedding

import (
	"context"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

// EmbeddingEngine generates vector embeddings for text. Implementations
// are swappable providers (local or cloud); callers never depend on a
// concrete type.
type EmbeddingEngine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider string // "ollama" or "genai"

	OllamaEndpoint string
	OllamaModel    string

	GenAIAPIKey string
	GenAIModel  string
	TaskType    string
}

// DefaultConfig returns the local-first default: Ollama against a
// default-port local server.
func DefaultConfig() Config {
	return Config{
		Provider:       "ollama",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
		GenAIModel:     "gemini-embedding-001",
		TaskType:       "SEMANTIC_SIMILARITY",
	}
}

// NewEngine builds the engine named by cfg.Provider.
func NewEngine(cfg Config) (EmbeddingEngine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewEngine")
	defer timer.Stop()

	switch cfg.Provider {
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		return NewGenAIEngine(cfg.GenAIAPIKey, cfg.GenAIModel, cfg.TaskType)
	default:
		return nil, superr.Newf(superr.InvalidParameter,
			"unsupported embedding provider %q (use ollama or genai)", cfg.Provider)
	}
}
