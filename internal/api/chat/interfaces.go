package chat

import (
	"context"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

type ChatUsecase interface {
	Answer(ctx context.Context, user string, req *entity.ChatRequest) (*entity.ChatResponse, error)
	ListConversations(ctx context.Context, user, project string) ([]*entity.Conversation, error)
}
