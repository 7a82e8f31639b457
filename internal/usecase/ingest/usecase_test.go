package ingest

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/chunker"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/loader"
	pkgRetry "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/retry"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/validator"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/registry"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	name    string
	content []byte
}

func fileHeaders(t *testing.T, files []fixture) []*multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(body, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["files"]
}

type fakeRegistryRepo struct {
	mu       sync.Mutex
	projects map[string]entity.Project
}

func (f *fakeRegistryRepo) Create(_ context.Context, p entity.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.User+"/"+p.Name] = p
	return nil
}

func (f *fakeRegistryRepo) Get(_ context.Context, user, name string) (*entity.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[user+"/"+name]
	if !ok {
		return nil, entity.ErrProjectNotFound
	}
	return &p, nil
}

func (f *fakeRegistryRepo) Delete(_ context.Context, user, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[user+"/"+name]; !ok {
		return entity.ErrProjectNotFound
	}
	delete(f.projects, user+"/"+name)
	return nil
}

type fakeEmbedder struct {
	mu        sync.Mutex
	failures  int
	dimension int
}

func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Dimension() int   { return f.dimension }

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, &entity.EmbeddingProviderError{Provider: "fake", Transient: true}
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dimension)
		v[0] = 1
		vectors[i] = v
	}
	return vectors, nil
}

type fakeConversations struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeConversations) DeleteByProject(_ context.Context, user, project string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, user+"/"+project)
	return nil
}

func uploadConfig() config.FileUploadConfig {
	return config.FileUploadConfig{
		MaxFileSize:   10 << 20,
		MaxTotalSize:  50 << 20,
		MaxFileCount:  30,
		MaxUploadSize: 64 << 20,
	}
}

func retryConfig() *pkgRetry.RetryConfig {
	return &pkgRetry.RetryConfig{
		Attempts: 3,
		Delay:    time.Millisecond,
		MaxDelay: 5 * time.Millisecond,
	}
}

type testEnv struct {
	uc            *IngestUsecase
	store         *memory.Store
	registry      *registry.Registry
	embedder      *fakeEmbedder
	conversations *fakeConversations
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	reg := registry.New(&fakeRegistryRepo{projects: make(map[string]entity.Project)}, "rag_", logger)
	store := memory.NewStore(nil, 0)
	embedder := &fakeEmbedder{dimension: 3}
	conversations := &fakeConversations{}

	uc := NewUsecase(
		reg,
		store,
		embedder,
		loader.New(logger),
		chunker.New(50, 10),
		conversations,
		validator.NewUploadValidator(uploadConfig()),
		config.IngestConfig{Workers: 2},
		retryConfig(),
		logger,
	)
	return &testEnv{uc: uc, store: store, registry: reg, embedder: embedder, conversations: conversations}
}

func TestIngest_SingleFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := fileHeaders(t, []fixture{
		{name: "notes.txt", content: []byte("The office opens at nine. Visitors sign in at the front desk.")},
	})

	report, err := env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: files})

	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.NoError(t, report.Results[0].Err)
	assert.Equal(t, "notes.txt", report.Results[0].Filename)
	assert.Greater(t, report.Results[0].ChunkCount, 0)
	assert.Equal(t, 1, report.Succeeded())

	// The chunks are searchable in the project's collection.
	project, err := env.registry.Lookup(ctx, "alice", "handbook")
	require.NoError(t, err)
	results, err := env.store.Search(ctx, project.CollectionID, "office", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestIngest_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := fileHeaders(t, []fixture{
		{name: "good1.txt", content: []byte("Parking is available on level two.")},
		{name: "broken.pdf", content: []byte("%PDF-1.4 not really a pdf")},
		{name: "good2.txt", content: []byte("Lunch vouchers renew monthly.")},
	})

	report, err := env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: files})

	require.NoError(t, err, "a broken file must not abort the batch")
	require.Len(t, report.Results, 3)

	assert.NoError(t, report.Results[0].Err)
	assert.Error(t, report.Results[1].Err)
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, 2, report.Succeeded())

	// Results keep input order.
	assert.Equal(t, "good1.txt", report.Results[0].Filename)
	assert.Equal(t, "broken.pdf", report.Results[1].Filename)
	assert.Equal(t, "good2.txt", report.Results[2].Filename)

	// Both good files are retrievable.
	project, err := env.registry.Lookup(ctx, "alice", "handbook")
	require.NoError(t, err)
	results, err := env.store.Search(ctx, project.CollectionID, "parking", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIngest_UnsupportedFormatFailsOnlyThatFile(t *testing.T) {
	env := newTestEnv(t)

	files := fileHeaders(t, []fixture{
		{name: "data.txt", content: []byte("Valid text content here.")},
		{name: "image.png", content: []byte{0x89, 0x50, 0x4e, 0x47}},
	})

	report, err := env.uc.Ingest(context.Background(), "alice", &entity.IngestRequest{Project: "docs", Files: files})

	require.NoError(t, err)
	assert.NoError(t, report.Results[0].Err)
	assert.ErrorIs(t, report.Results[1].Err, entity.ErrUnsupportedFormat)
}

func TestIngest_TransientEmbeddingFailureIsRetried(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.failures = 1

	files := fileHeaders(t, []fixture{
		{name: "notes.txt", content: []byte("Retry survives one transient provider fault.")},
	})

	report, err := env.uc.Ingest(context.Background(), "alice", &entity.IngestRequest{Project: "handbook", Files: files})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded())
}

func TestIngest_SecondUploadAppendsToCollection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := fileHeaders(t, []fixture{{name: "a.txt", content: []byte("First document body.")}})
	_, err := env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: first})
	require.NoError(t, err)

	second := fileHeaders(t, []fixture{{name: "b.txt", content: []byte("Second document body.")}})
	_, err = env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: second})
	require.NoError(t, err)

	project, err := env.registry.Lookup(ctx, "alice", "handbook")
	require.NoError(t, err)
	results, err := env.store.Search(ctx, project.CollectionID, "document", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIngest_UserIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := fileHeaders(t, []fixture{{name: "a.txt", content: []byte("Private to alice.")}})
	_, err := env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: files})
	require.NoError(t, err)

	alice, err := env.registry.Lookup(ctx, "alice", "handbook")
	require.NoError(t, err)

	// Bob's same-named project maps to a different, empty collection.
	bobCollection := env.registry.CollectionID("bob", "handbook")
	assert.NotEqual(t, alice.CollectionID, bobCollection)

	_, err = env.store.Search(ctx, bobCollection, "private", []float32{1, 0, 0}, 5)
	assert.Error(t, err, "bob's collection must not exist yet")
}

func TestIngest_ValidationRejectsBadProjectName(t *testing.T) {
	env := newTestEnv(t)

	files := fileHeaders(t, []fixture{{name: "a.txt", content: []byte("content")}})
	_, err := env.uc.Ingest(context.Background(), "alice", &entity.IngestRequest{Project: "", Files: files})

	assert.Error(t, err)
}

func TestDeleteProject_RemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	files := fileHeaders(t, []fixture{{name: "a.txt", content: []byte("To be deleted.")}})
	_, err := env.uc.Ingest(ctx, "alice", &entity.IngestRequest{Project: "handbook", Files: files})
	require.NoError(t, err)

	project, err := env.registry.Lookup(ctx, "alice", "handbook")
	require.NoError(t, err)

	require.NoError(t, env.uc.DeleteProject(ctx, "alice", "handbook"))

	_, err = env.registry.Lookup(ctx, "alice", "handbook")
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)

	_, err = env.store.Search(ctx, project.CollectionID, "deleted", []float32{1, 0, 0}, 5)
	assert.Error(t, err, "collection must be gone")

	assert.Contains(t, env.conversations.deleted, "alice/handbook")
}

func TestDeleteProject_UnknownProject(t *testing.T) {
	env := newTestEnv(t)

	err := env.uc.DeleteProject(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, entity.ErrProjectNotFound)
}
