package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
	"github.com/nbbaier/supertag/internal/store"
)

// defaultBatchSize bounds how many texts go into one engine call.
const defaultBatchSize = 32

// GenerateOptions tunes one generation pass.
type GenerateOptions struct {
	Filter    FilterOptions
	BatchSize int
}

// GenerateReport summarizes one generation pass.
type GenerateReport struct {
	Considered int
	Skipped    int // already up to date, by text hash
	Embedded   int
	Failed     int
}

// Generate selects embeddable nodes from s per opts.Filter, skips any
// whose build text hasn't changed since the last pass (by SHA-256), and
// embeds the rest in batches of opts.BatchSize, upserting each result
// into the workspace's vector store. It checks ctx between batches so a
// long pass over a large workspace is cancelable; a completed batch's
// writes are durable even if a later batch is cancelled.
func Generate(ctx context.Context, s *store.Store, engine EmbeddingEngine, opts GenerateOptions) (*GenerateReport, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Generate")
	defer timer.Stop()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	ids, err := store.AllNodeIDs(s.DB())
	if err != nil {
		return nil, err
	}

	report := &GenerateReport{}

	type candidate struct {
		node *store.Node
		text string
		hash string
	}
	var batch []candidate

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.text
		}
		vectors, err := engine.EmbedBatch(ctx, texts)
		if err != nil {
			report.Failed += len(batch)
			logging.Get(logging.CategoryEmbedding).Warn("embedding batch of %d failed: %v", len(batch), err)
			batch = batch[:0]
			return nil
		}
		if len(vectors) != len(batch) {
			return superr.Newf(superr.ApiError,
				"embedding sink returned %d vectors for a batch of %d", len(vectors), len(batch))
		}

		// dimensions is fixed by the first response in the batch; any
		// later response that disagrees rejects the whole batch rather
		// than writing a mixed-width set of vectors.
		dim := len(vectors[0])
		for _, v := range vectors {
			if len(v) != dim {
				report.Failed += len(batch)
				logging.Get(logging.CategoryEmbedding).Warn(
					"embedding batch rejected: dimension mismatch within batch (%d vs %d)", len(v), dim)
				batch = batch[:0]
				return nil
			}
		}

		for i, c := range batch {
			if err := s.Vector().Upsert(c.node.ID, vectors[i], c.hash, c.node.Updated.Int64); err != nil {
				report.Failed++
				logging.Get(logging.CategoryEmbedding).Warn("node %s: vector upsert failed: %v", c.node.ID, err)
				continue
			}
			report.Embedded++
		}
		batch = batch[:0]
		return nil
	}

	for id := range ids {
		if err := ctx.Err(); err != nil {
			return report, superr.Wrap(superr.Timeout, err, "embedding generation cancelled")
		}

		n, err := store.GetNode(s.DB(), id)
		if err != nil {
			continue
		}
		if !Selected(n, opts.Filter) {
			continue
		}
		report.Considered++

		text, err := BuildText(s.DB(), n)
		if err != nil || text == "" {
			continue
		}
		hash := sha256.Sum256([]byte(text))
		hashHex := hex.EncodeToString(hash[:])

		if existing, ok, err := s.Vector().ContentHash(n.ID); err == nil && ok && existing == hashHex {
			report.Skipped++
			continue
		}

		batch = append(batch, candidate{node: n, text: text, hash: hashHex})
		if len(batch) >= batchSize {
			if err := ctx.Err(); err != nil {
				return report, superr.Wrap(superr.Timeout, err, "embedding generation cancelled")
			}
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	return report, nil
}
