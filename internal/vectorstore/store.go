// Package vectorstore defines the adapter owning per-project vector
// collections: idempotent collection creation, atomic batch upserts,
// nearest-neighbor search with optional two-stage re-ranking, and safe
// collection deletion.
package vectorstore

import (
	"context"
	"sort"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

// Store persists chunk vectors in isolated per-project collections.
//
// Upsert is atomic per call: either every chunk of the batch becomes
// visible or none does; a failure never leaves a partial batch readable.
// A collection never mixes embedding dimensionalities; writes with a
// mismatched vector length fail with entity.ErrDimensionMismatch.
// DeleteCollection on a non-existent collection is a no-op.
type Store interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, chunks []entity.Chunk) error
	Search(ctx context.Context, collection, query string, vector []float32, k int) ([]entity.RetrievedChunk, error)
	DeleteCollection(ctx context.Context, collection string) error
}

// Reranker re-scores candidate documents against the query. When a store
// is built with one, Search oversamples candidates by vector similarity
// and re-orders them by the reranker's relevance before truncating to k:
// broad recall first, precision second.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]Score, error)
}

// Score is a reranker relevance judgement for one candidate index.
type Score struct {
	Index int
	Score float64
}

// FetchSize returns how many candidates the similarity stage should pull.
func FetchSize(k, oversample int, reranker Reranker) int {
	if reranker == nil || oversample <= 1 {
		return k
	}
	return k * oversample
}

// ApplyRerank re-orders candidates by the reranker's scores and truncates to k.
func ApplyRerank(ctx context.Context, rr Reranker, query string, candidates []entity.RetrievedChunk, k int) ([]entity.RetrievedChunk, error) {
	if rr == nil || len(candidates) <= 1 {
		return truncate(candidates, k), nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	scores, err := rr.Rerank(ctx, query, docs)
	if err != nil {
		return nil, err
	}

	reordered := make([]entity.RetrievedChunk, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			continue
		}
		c := candidates[s.Index]
		c.Score = s.Score
		reordered = append(reordered, c)
	}
	sort.SliceStable(reordered, func(i, j int) bool {
		return reordered[i].Score > reordered[j].Score
	})

	return truncate(reordered, k), nil
}

func truncate(chunks []entity.RetrievedChunk, k int) []entity.RetrievedChunk {
	if len(chunks) > k {
		return chunks[:k]
	}
	return chunks
}
