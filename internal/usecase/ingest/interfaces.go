package ingest

import (
	"context"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

type Embedder interface {
	Provider() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, chunks []entity.Chunk) error
	DeleteCollection(ctx context.Context, collection string) error
}

type ProjectRegistry interface {
	Ensure(ctx context.Context, user, project, provider string, dimension int) (*entity.Project, error)
	Lookup(ctx context.Context, user, project string) (*entity.Project, error)
	Delete(ctx context.Context, user, project string) error
}

type Loader interface {
	Load(ctx context.Context, file entity.FileData) ([]entity.Segment, error)
}

type Chunker interface {
	Split(docID, filename string, segments []entity.Segment) []entity.Chunk
}

type ConversationRepository interface {
	DeleteByProject(ctx context.Context, user, project string) error
}
