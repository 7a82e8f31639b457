package project

import (
	"context"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, user string, req *entity.IngestRequest) (*entity.IngestReport, error)
	DeleteProject(ctx context.Context, user, project string) error
}
