package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/middleware"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Chat handles POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctxzap.Info(ctx, "chat request",
		zap.String("project", req.Project),
		zap.String("conversation_id", req.ConversationID),
	)

	resp, err := h.usecase.Answer(ctx, middleware.UserFromContext(ctx), &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ListConversations handles GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListConversations")

	project := r.URL.Query().Get("project")

	conversations, err := h.usecase.ListConversations(ctx, middleware.UserFromContext(ctx), project)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toListResponse(conversations))
}

func toListResponse(conversations []*entity.Conversation) *entity.ListConversationsResponse {
	resp := &entity.ListConversationsResponse{
		Conversations: make([]entity.ConversationSummary, len(conversations)),
	}
	for i, c := range conversations {
		resp.Conversations[i] = entity.ConversationSummary{
			ConversationID: c.ID,
			Project:        c.Project,
			Turns:          c.Turns,
			UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
		}
	}
	return resp
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var genErr *entity.GenerationError
	switch {
	case errors.Is(err, entity.ErrProjectNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "project not found", err)
	case errors.Is(err, entity.ErrConversationNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "conversation not found", err)
	case errors.Is(err, entity.ErrEmbeddingProviderMismatch):
		h.respondError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.As(err, &genErr):
		h.respondError(ctx, w, http.StatusBadGateway, "generation failed", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
