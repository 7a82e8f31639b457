// Package chat implements the retrieval-augmented chat orchestrator: embed
// the query, retrieve from the project's collection, assemble a grounded
// prompt with conversation history, and append the generated turn.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/lock"
	pkgRetry "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/retry"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const systemInstruction = "You are a documentation assistant. Answer the question using only the " +
	"provided context passages. Cite the source file of each fact you use. " +
	"If the context does not contain the answer, say that you do not know."

// ChatUsecase answers queries against a project's ingested documents.
// Failures surface as errors; the orchestrator never substitutes a
// placeholder answer of its own.
type ChatUsecase struct {
	registry          ProjectRegistry
	store             VectorStore
	embedder          Embedder
	generator         Generator
	conversations     ConversationRepository
	validator         *validator.Validator
	conversationLocks *lock.KeyedMutex
	topK              int
	retryCfg          *pkgRetry.RetryConfig
	logger            *zap.Logger
}

func NewUsecase(
	registry ProjectRegistry,
	store VectorStore,
	embedder Embedder,
	generator Generator,
	conversations ConversationRepository,
	validator *validator.Validator,
	retrievalCfg config.RetrievalConfig,
	retryCfg *pkgRetry.RetryConfig,
	logger *zap.Logger,
) *ChatUsecase {
	topK := retrievalCfg.TopK
	if topK < 1 {
		topK = 4
	}
	return &ChatUsecase{
		registry:          registry,
		store:             store,
		embedder:          embedder,
		generator:         generator,
		conversations:     conversations,
		validator:         validator,
		conversationLocks: lock.NewKeyedMutex(),
		topK:              topK,
		retryCfg:          retryCfg,
		logger:            logger,
	}
}

// Answer runs one retrieval-augmented turn. When req.ConversationID is
// empty a new conversation is created; otherwise the turn is appended to
// the existing thread, with appends serialized per conversation.
func (uc *ChatUsecase) Answer(ctx context.Context, user string, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	if err := uc.validator.ValidateChat(req); err != nil {
		return nil, err
	}

	project, err := uc.registry.Lookup(ctx, user, req.Project)
	if err != nil {
		return nil, err
	}

	// A collection is only queryable through the provider that wrote it.
	if project.EmbeddingProvider != uc.embedder.Provider() {
		return nil, fmt.Errorf("%w: collection written by %q, configured provider is %q",
			entity.ErrEmbeddingProviderMismatch, project.EmbeddingProvider, uc.embedder.Provider())
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	// The thread must be loaded under the same lock that guards the save,
	// or two concurrent turns would both read the same turn list and the
	// later save would drop the earlier append.
	unlock := uc.conversationLocks.Lock(conversationID)
	defer unlock()

	conversation, err := uc.loadConversation(ctx, user, req, conversationID)
	if err != nil {
		return nil, err
	}

	chunks, err := uc.retrieve(ctx, project.CollectionID, req.Query)
	if err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "retrieved context",
		zap.String("project", req.Project),
		zap.Int("chunk_count", len(chunks)),
	)

	messages := uc.assemblePrompt(req.Query, chunks, conversation.Turns)

	var answer string
	err = pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		var genErr error
		answer, genErr = uc.generator.Generate(ctx, messages)
		return genErr
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conversation.Turns = append(conversation.Turns, entity.ConversationTurn{
		Query:     req.Query,
		Answer:    answer,
		CreatedAt: now,
	})
	conversation.UpdatedAt = now

	if err := uc.conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "chat turn completed",
		zap.String("project", req.Project),
		zap.String("conversation_id", conversation.ID),
		zap.Int("turn_count", len(conversation.Turns)),
	)

	return &entity.ChatResponse{
		Answer:         answer,
		ConversationID: conversation.ID,
		Sources:        chunks,
	}, nil
}

// ListConversations returns the user's threads, most recently active
// first. With an empty project it spans all of the user's projects;
// otherwise it is scoped to that project, which must exist.
func (uc *ChatUsecase) ListConversations(ctx context.Context, user, project string) ([]*entity.Conversation, error) {
	if project == "" {
		return uc.conversations.ListByUser(ctx, user)
	}
	if err := uc.validator.ValidateProjectName(project); err != nil {
		return nil, err
	}
	if _, err := uc.registry.Lookup(ctx, user, project); err != nil {
		return nil, err
	}
	return uc.conversations.ListByProject(ctx, user, project)
}

// loadConversation fetches or initializes the thread. Callers must hold
// the conversation lock for id.
func (uc *ChatUsecase) loadConversation(ctx context.Context, user string, req *entity.ChatRequest, id string) (*entity.Conversation, error) {
	if req.ConversationID == "" {
		return &entity.Conversation{
			ID:      id,
			User:    user,
			Project: req.Project,
		}, nil
	}

	conversation, err := uc.conversations.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	// A thread is private to its owner and bound to one project.
	if conversation.User != user || conversation.Project != req.Project {
		return nil, entity.ErrConversationNotFound
	}
	return conversation, nil
}

func (uc *ChatUsecase) retrieve(ctx context.Context, collection, query string) ([]entity.RetrievedChunk, error) {
	var vector []float32
	err := pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		vectors, embedErr := uc.embedder.EmbedBatch(ctx, []string{query})
		if embedErr != nil {
			return embedErr
		}
		vector = vectors[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	var chunks []entity.RetrievedChunk
	err = pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		var searchErr error
		chunks, searchErr = uc.store.Search(ctx, collection, query, vector, uc.topK)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// assemblePrompt builds the fixed message layout: one system message with
// the instruction and cited context passages, the prior turns in order,
// then the current query.
func (uc *ChatUsecase) assemblePrompt(query string, chunks []entity.RetrievedChunk, history []entity.ConversationTurn) []entity.PromptMessage {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nContext passages:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] (source: %s", i+1, c.Filename)
		if c.Page > 0 {
			fmt.Fprintf(&b, ", page %d", c.Page)
		}
		b.WriteString(")\n")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	if len(chunks) == 0 {
		b.WriteString("\n(no relevant passages found)\n")
	}

	messages := []entity.PromptMessage{{Role: entity.RoleSystem, Content: b.String()}}
	for _, turn := range history {
		messages = append(messages,
			entity.PromptMessage{Role: entity.RoleUser, Content: turn.Query},
			entity.PromptMessage{Role: entity.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, entity.PromptMessage{Role: entity.RoleUser, Content: query})
	return messages
}
