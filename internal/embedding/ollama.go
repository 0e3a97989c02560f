package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// OllamaEngine calls a local Ollama server's embeddings endpoint.
type OllamaEngine struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaEngine builds an engine against endpoint/model, defaulting
// both to Ollama's local conventions when empty.
func NewOllamaEngine(endpoint, model string) (*OllamaEngine, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	return &OllamaEngine{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed calls /api/embeddings for a single text.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "marshaling ollama embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "building ollama embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, superr.Wrap(superr.LocalApiUnavailable, err, "calling ollama at "+e.endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, superr.Newf(superr.LocalApiUnavailable, "ollama returned status %d: %s", resp.StatusCode, string(b))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, superr.Wrap(superr.InternalError, err, "decoding ollama embed response")
	}
	return out.Embedding, nil
}

// EmbedBatch has no native batch endpoint in Ollama, so texts are
// embedded sequentially.
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, superr.Wrap(superr.Timeout, err, "embedding batch cancelled")
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions reports embeddinggemma's native width.
func (e *OllamaEngine) Dimensions() int { return 768 }

// Name identifies the engine instance for logs and stats reports.
func (e *OllamaEngine) Name() string { return fmt.Sprintf("ollama:%s", e.model) }
