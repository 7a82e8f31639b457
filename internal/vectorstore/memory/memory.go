// Package memory implements the vector store interface in process memory.
// It backs mock mode and tests; the semantics (atomic upserts, dimension
// guard, per-collection isolation) match the production adapter.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
)

type record struct {
	chunk  entity.Chunk
	vector []float32
}

type collection struct {
	dimension int
	records   []record
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	reranker    vectorstore.Reranker
	oversample  int
}

var _ vectorstore.Store = &Store{}

func NewStore(reranker vectorstore.Reranker, oversample int) *Store {
	return &Store{
		collections: make(map[string]*collection),
		reranker:    reranker,
		oversample:  oversample,
	}
}

func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		if col.dimension != dimension {
			return fmt.Errorf("%w: collection %s holds %d-dimensional vectors, got %d",
				entity.ErrDimensionMismatch, name, col.dimension, dimension)
		}
		return nil
	}

	s.collections[name] = &collection{dimension: dimension}
	return nil
}

// Upsert validates the whole batch before touching the collection, so a
// bad record leaves zero records visible.
func (s *Store) Upsert(ctx context.Context, name string, chunks []entity.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		return &entity.VectorStoreError{
			Op:         "upsert",
			Collection: name,
			Err:        fmt.Errorf("collection does not exist"),
		}
	}

	batch := make([]record, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != col.dimension {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection %s expects %d",
				entity.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), name, col.dimension)
		}
		vec := make([]float32, len(chunk.Vector))
		copy(vec, chunk.Vector)
		batch = append(batch, record{chunk: chunk, vector: vec})
	}

	col.records = append(col.records, batch...)
	return nil
}

func (s *Store) Search(ctx context.Context, name, query string, vector []float32, k int) ([]entity.RetrievedChunk, error) {
	s.mu.RLock()
	col, ok := s.collections[name]
	if !ok {
		s.mu.RUnlock()
		return nil, &entity.VectorStoreError{
			Op:         "search",
			Collection: name,
			Err:        fmt.Errorf("collection does not exist"),
		}
	}
	if len(vector) != col.dimension {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection %s expects %d",
			entity.ErrDimensionMismatch, len(vector), name, col.dimension)
	}

	candidates := make([]entity.RetrievedChunk, 0, len(col.records))
	for _, rec := range col.records {
		candidates = append(candidates, entity.RetrievedChunk{
			Text:     rec.chunk.Text,
			Filename: rec.chunk.Filename,
			Page:     rec.chunk.Page,
			Ordinal:  rec.chunk.Ordinal,
			Score:    cosine(vector, rec.vector),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	fetch := vectorstore.FetchSize(k, s.oversample, s.reranker)
	if len(candidates) > fetch {
		candidates = candidates[:fetch]
	}

	return vectorstore.ApplyRerank(ctx, s.reranker, query, candidates, k)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
