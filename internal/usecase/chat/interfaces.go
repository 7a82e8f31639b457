package chat

import (
	"context"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

type Embedder interface {
	Provider() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, collection, query string, vector []float32, k int) ([]entity.RetrievedChunk, error)
}

type Generator interface {
	Generate(ctx context.Context, messages []entity.PromptMessage) (string, error)
}

type ProjectRegistry interface {
	Lookup(ctx context.Context, user, project string) (*entity.Project, error)
}

type ConversationRepository interface {
	Get(ctx context.Context, id string) (*entity.Conversation, error)
	Save(ctx context.Context, conversation *entity.Conversation) error
	ListByUser(ctx context.Context, user string) ([]*entity.Conversation, error)
	ListByProject(ctx context.Context, user, project string) ([]*entity.Conversation, error)
}
