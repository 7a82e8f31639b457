package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id, text string, vector []float32) entity.Chunk {
	return entity.Chunk{
		ID:       id,
		Filename: "doc.txt",
		Text:     text,
		Vector:   vector,
	}
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()

	require.NoError(t, s.EnsureCollection(ctx, "col", 3))
	require.NoError(t, s.EnsureCollection(ctx, "col", 3))

	err := s.EnsureCollection(ctx, "col", 5)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestUpsert_MissingCollection(t *testing.T) {
	s := NewStore(nil, 0)

	err := s.Upsert(context.Background(), "nope", []entity.Chunk{chunk("1", "x", []float32{1})})

	var storeErr *entity.VectorStoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert", storeErr.Op)
	assert.Equal(t, "nope", storeErr.Collection)
}

func TestUpsert_AtomicOnDimensionMismatch(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "col", 2))

	err := s.Upsert(ctx, "col", []entity.Chunk{
		chunk("good", "fine", []float32{1, 0}),
		chunk("bad", "wrong size", []float32{1, 0, 0}),
	})
	require.ErrorIs(t, err, entity.ErrDimensionMismatch)

	// The valid record of the failed batch must not be visible.
	results, err := s.Search(ctx, "col", "q", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "col", 2))

	require.NoError(t, s.Upsert(ctx, "col", []entity.Chunk{
		chunk("a", "about cats", []float32{1, 0}),
		chunk("b", "about dogs", []float32{0, 1}),
		chunk("c", "about pets", []float32{0.7, 0.7}),
	}))

	results, err := s.Search(ctx, "col", "cats", []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "about cats", results[0].Text)
	assert.Equal(t, "about pets", results[1].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_CollectionIsolation(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "alpha", 2))
	require.NoError(t, s.EnsureCollection(ctx, "beta", 2))

	require.NoError(t, s.Upsert(ctx, "alpha", []entity.Chunk{chunk("a", "alpha only", []float32{1, 0})}))

	results, err := s.Search(ctx, "beta", "q", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_MissingCollection(t *testing.T) {
	s := NewStore(nil, 0)

	_, err := s.Search(context.Background(), "ghost", "q", []float32{1}, 3)

	var storeErr *entity.VectorStoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "col", 2))

	_, err := s.Search(ctx, "col", "q", []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestDeleteCollection_IsIdempotent(t *testing.T) {
	s := NewStore(nil, 0)
	ctx := context.Background()

	require.NoError(t, s.EnsureCollection(ctx, "col", 2))
	require.NoError(t, s.DeleteCollection(ctx, "col"))
	require.NoError(t, s.DeleteCollection(ctx, "col"))

	// Recreating after delete starts empty, even with a new dimension.
	require.NoError(t, s.EnsureCollection(ctx, "col", 4))
}

// reverseReranker inverts candidate order, making the rerank stage visible.
type reverseReranker struct{}

func (reverseReranker) Rerank(_ context.Context, _ string, documents []string) ([]vectorstore.Score, error) {
	scores := make([]vectorstore.Score, len(documents))
	for i := range documents {
		scores[i] = vectorstore.Score{Index: i, Score: float64(i)}
	}
	// Highest score for the last candidate first.
	for l, r := 0, len(scores)-1; l < r; l, r = l+1, r-1 {
		scores[l], scores[r] = scores[r], scores[l]
	}
	return scores, nil
}

func TestSearch_TwoStageRerank(t *testing.T) {
	s := NewStore(reverseReranker{}, 3)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "col", 2))

	require.NoError(t, s.Upsert(ctx, "col", []entity.Chunk{
		chunk("a", "first", []float32{1, 0}),
		chunk("b", "second", []float32{0.9, 0.1}),
		chunk("c", "third", []float32{0.8, 0.2}),
	}))

	results, err := s.Search(ctx, "col", "q", []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	// Similarity order was a,b,c; the reranker reversed it.
	assert.Equal(t, "third", results[0].Text)
	assert.Equal(t, "second", results[1].Text)
}

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []string) ([]vectorstore.Score, error) {
	return nil, fmt.Errorf("rerank provider down")
}

func TestSearch_RerankFailureSurfaces(t *testing.T) {
	s := NewStore(failingReranker{}, 2)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "col", 1))
	require.NoError(t, s.Upsert(ctx, "col", []entity.Chunk{
		chunk("a", "x", []float32{1}),
		chunk("b", "y", []float32{0.5}),
	}))

	_, err := s.Search(ctx, "col", "q", []float32{1}, 1)
	assert.Error(t, err)
}
