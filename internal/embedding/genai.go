package embedding

import (
	"context"
	"fmt"

	superr "github.com/nbbaier/supertag/internal/errors"

	"google.golang.org/genai"
)

// genaiBatchLimit is the API's per-request cap on embed inputs; larger
// batches are chunked and issued sequentially.
const genaiBatchLimit = 100

// genaiDimensions is the width gemini-embedding-001 returns.
const genaiDimensions = 3072

func int32Ptr(i int32) *int32 { return &i }

// GenAIEngine calls Google's Gemini embedding API.
type GenAIEngine struct {
	client   *genai.Client
	model    string
	taskType string
}

// NewGenAIEngine builds a client-backed engine. apiKey is required.
func NewGenAIEngine(apiKey, model, taskType string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, superr.New(superr.ApiKeyMissing, "GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, superr.Wrap(superr.ApiError, err, "creating GenAI client")
	}

	return &GenAIEngine{client: client, model: model, taskType: taskType}, nil
}

// Embed embeds a single text.
func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.embedChunk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, superr.New(superr.ApiError, "GenAI returned no embeddings")
	}
	return out[0], nil
}

// EmbedBatch chunks texts into genaiBatchLimit-sized requests and
// concatenates the results, yielding between chunks so a cancellation
// lands between external calls rather than mid-call.
func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= genaiBatchLimit {
		return e.embedChunk(ctx, texts)
	}

	var all [][]float32
	for start := 0; start < len(texts); start += genaiBatchLimit {
		if err := ctx.Err(); err != nil {
			return nil, superr.Wrap(superr.Timeout, err, "embedding batch cancelled")
		}
		end := start + genaiBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		all = append(all, chunk...)
	}
	return all, nil
}

func (e *GenAIEngine) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: int32Ptr(genaiDimensions),
	})
	if err != nil {
		return nil, superr.Wrap(superr.ApiError, err, "GenAI EmbedContent call")
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// Dimensions reports gemini-embedding-001's native width.
func (e *GenAIEngine) Dimensions() int { return genaiDimensions }

// Name identifies the engine instance for logs and stats reports.
func (e *GenAIEngine) Name() string { return fmt.Sprintf("genai:%s", e.model) }
