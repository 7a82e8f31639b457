package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository persists chat histories.
type ConversationRepository interface {
	Get(ctx context.Context, id string) (*entity.Conversation, error)
	Save(ctx context.Context, conversation *entity.Conversation) error
	ListByUser(ctx context.Context, user string) ([]*entity.Conversation, error)
	ListByProject(ctx context.Context, user, project string) ([]*entity.Conversation, error)
	DeleteByProject(ctx context.Context, user, project string) error
}

var _ ConversationRepository = &ConversationPostgres{}

// ConversationPostgres implements ConversationRepository using PostgreSQL.
// Turns are stored as a jsonb array; a conversation is always read and
// written whole.
type ConversationPostgres struct {
	db *pgxpool.Pool
}

func NewConversationPostgres(db *pgxpool.Pool) *ConversationPostgres {
	return &ConversationPostgres{db: db}
}

func (r *ConversationPostgres) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	var (
		conv      entity.Conversation
		turnsJSON []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, user_name, project_name, turns, updated_at
		FROM conversations
		WHERE id = $1`,
		id,
	).Scan(&conv.ID, &conv.User, &conv.Project, &turnsJSON, &conv.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
		return nil, fmt.Errorf("decode conversation turns: %w", err)
	}
	return &conv, nil
}

func (r *ConversationPostgres) Save(ctx context.Context, conversation *entity.Conversation) error {
	turnsJSON, err := json.Marshal(conversation.Turns)
	if err != nil {
		return fmt.Errorf("encode conversation turns: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO conversations (id, user_name, project_name, turns, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET turns = $4, updated_at = $5`,
		conversation.ID, conversation.User, conversation.Project, turnsJSON, conversation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (r *ConversationPostgres) ListByUser(ctx context.Context, user string) ([]*entity.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_name, project_name, turns, updated_at
		FROM conversations
		WHERE user_name = $1
		ORDER BY project_name, updated_at DESC`,
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return scanConversations(rows)
}

func (r *ConversationPostgres) ListByProject(ctx context.Context, user, project string) ([]*entity.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_name, project_name, turns, updated_at
		FROM conversations
		WHERE user_name = $1 AND project_name = $2
		ORDER BY updated_at DESC`,
		user, project,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return scanConversations(rows)
}

func scanConversations(rows pgx.Rows) ([]*entity.Conversation, error) {
	defer rows.Close()

	var conversations []*entity.Conversation
	for rows.Next() {
		var (
			conv      entity.Conversation
			turnsJSON []byte
		)
		if err := rows.Scan(&conv.ID, &conv.User, &conv.Project, &turnsJSON, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
			return nil, fmt.Errorf("decode conversation turns: %w", err)
		}
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return conversations, nil
}

func (r *ConversationPostgres) DeleteByProject(ctx context.Context, user, project string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM conversations
		WHERE user_name = $1 AND project_name = $2`,
		user, project,
	)
	if err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}
