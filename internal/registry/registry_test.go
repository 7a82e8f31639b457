package registry

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	projects map[string]entity.Project
	gets     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: make(map[string]entity.Project)}
}

func (f *fakeRepo) key(user, name string) string { return user + "/" + name }

func (f *fakeRepo) Create(_ context.Context, p entity.Project) error {
	f.projects[f.key(p.User, p.Name)] = p
	return nil
}

func (f *fakeRepo) Get(_ context.Context, user, name string) (*entity.Project, error) {
	f.gets++
	p, ok := f.projects[f.key(user, name)]
	if !ok {
		return nil, entity.ErrProjectNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Delete(_ context.Context, user, name string) error {
	k := f.key(user, name)
	if _, ok := f.projects[k]; !ok {
		return entity.ErrProjectNotFound
	}
	delete(f.projects, k)
	return nil
}

func newRegistry(repo *fakeRepo) *Registry {
	return New(repo, "rag_", zap.NewNop())
}

func TestCollectionID_Deterministic(t *testing.T) {
	r := newRegistry(newFakeRepo())

	id1 := r.CollectionID("alice", "handbook")
	id2 := r.CollectionID("alice", "handbook")

	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "rag_"))
	// sha256 hex digest after the prefix
	assert.Len(t, id1, len("rag_")+64)
}

func TestCollectionID_IsolatesUsersAndProjects(t *testing.T) {
	r := newRegistry(newFakeRepo())

	assert.NotEqual(t, r.CollectionID("alice", "handbook"), r.CollectionID("bob", "handbook"))
	assert.NotEqual(t, r.CollectionID("alice", "handbook"), r.CollectionID("alice", "faq"))
}

func TestEnsure_CreatesAndIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	r := newRegistry(repo)
	ctx := context.Background()

	first, err := r.Ensure(ctx, "alice", "handbook", "openai:text-embedding-3-small", 1536)
	require.NoError(t, err)
	assert.Equal(t, r.CollectionID("alice", "handbook"), first.CollectionID)
	assert.Equal(t, 1536, first.EmbeddingDimension)

	second, err := r.Ensure(ctx, "alice", "handbook", "openai:text-embedding-3-small", 1536)
	require.NoError(t, err)
	assert.Equal(t, first.CollectionID, second.CollectionID)
	assert.Len(t, repo.projects, 1)
}

func TestEnsure_RejectsProviderMismatch(t *testing.T) {
	r := newRegistry(newFakeRepo())
	ctx := context.Background()

	_, err := r.Ensure(ctx, "alice", "handbook", "openai:text-embedding-3-small", 1536)
	require.NoError(t, err)

	_, err = r.Ensure(ctx, "alice", "handbook", "mock", 1536)
	assert.ErrorIs(t, err, entity.ErrEmbeddingProviderMismatch)
}

func TestEnsure_RejectsDimensionMismatch(t *testing.T) {
	r := newRegistry(newFakeRepo())
	ctx := context.Background()

	_, err := r.Ensure(ctx, "alice", "handbook", "mock", 64)
	require.NoError(t, err)

	_, err = r.Ensure(ctx, "alice", "handbook", "mock", 128)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestLookup_NotFound(t *testing.T) {
	r := newRegistry(newFakeRepo())

	_, err := r.Lookup(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}

func TestLookup_UsesCache(t *testing.T) {
	repo := newFakeRepo()
	r := newRegistry(repo)
	ctx := context.Background()

	_, err := r.Ensure(ctx, "alice", "handbook", "mock", 64)
	require.NoError(t, err)

	before := repo.gets
	for i := 0; i < 5; i++ {
		_, err := r.Lookup(ctx, "alice", "handbook")
		require.NoError(t, err)
	}
	assert.Equal(t, before, repo.gets, "cached lookups must not hit the repository")
}

func TestDelete_EvictsCache(t *testing.T) {
	repo := newFakeRepo()
	r := newRegistry(repo)
	ctx := context.Background()

	_, err := r.Ensure(ctx, "alice", "handbook", "mock", 64)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "alice", "handbook"))

	_, err = r.Lookup(ctx, "alice", "handbook")
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	r := newRegistry(newFakeRepo())
	err := r.Delete(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}

func TestEnsure_ConcurrentSameProject(t *testing.T) {
	repo := newFakeRepo()
	r := newRegistry(repo)
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := r.Ensure(ctx, "alice", "handbook", "mock", 64)
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}
	assert.Len(t, repo.projects, 1)
}

func TestEnsure_DistinctPrefixes(t *testing.T) {
	repo := newFakeRepo()
	r := New(repo, "tenant42_", zap.NewNop())

	p, err := r.Ensure(context.Background(), "alice", "handbook", "mock", 64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.CollectionID, "tenant42_"), fmt.Sprintf("got %s", p.CollectionID))
}
