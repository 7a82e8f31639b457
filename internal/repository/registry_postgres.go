package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistryRepository persists the project -> collection mapping.
type RegistryRepository interface {
	Create(ctx context.Context, project entity.Project) error
	Get(ctx context.Context, user, name string) (*entity.Project, error)
	Delete(ctx context.Context, user, name string) error
}

var _ RegistryRepository = &RegistryPostgres{}

// RegistryPostgres implements RegistryRepository using PostgreSQL
type RegistryPostgres struct {
	db *pgxpool.Pool
}

func NewRegistryPostgres(db *pgxpool.Pool) *RegistryPostgres {
	return &RegistryPostgres{db: db}
}

func (r *RegistryPostgres) Create(ctx context.Context, project entity.Project) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rag_projects (user_name, project_name, collection_id, embedding_provider, embedding_dimension, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_name, project_name) DO NOTHING`,
		project.User, project.Name, project.CollectionID,
		project.EmbeddingProvider, project.EmbeddingDimension, project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project registration: %w", err)
	}
	return nil
}

func (r *RegistryPostgres) Get(ctx context.Context, user, name string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.QueryRow(ctx, `
		SELECT user_name, project_name, collection_id, embedding_provider, embedding_dimension, created_at
		FROM rag_projects
		WHERE user_name = $1 AND project_name = $2`,
		user, name,
	).Scan(&p.User, &p.Name, &p.CollectionID, &p.EmbeddingProvider, &p.EmbeddingDimension, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project registration: %w", err)
	}
	return &p, nil
}

func (r *RegistryPostgres) Delete(ctx context.Context, user, name string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM rag_projects
		WHERE user_name = $1 AND project_name = $2`,
		user, name,
	)
	if err != nil {
		return fmt.Errorf("delete project registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProjectNotFound
	}
	return nil
}
