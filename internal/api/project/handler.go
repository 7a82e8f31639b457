package project

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/middleware"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase IngestUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase IngestUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// Ingest handles POST /projects/{project}/ingest
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ingest")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	req := entity.IngestRequest{
		Project: chi.URLParam(r, "project"),
		Files:   r.MultipartForm.File["files"],
	}
	if len(req.Files) == 0 {
		ctxzap.Warn(ctx, "no files provided")
		h.respondError(ctx, w, http.StatusBadRequest, "at least one file is required", nil)
		return
	}

	ctxzap.Info(ctx, "ingesting files",
		zap.String("project", req.Project),
		zap.Int("file_count", len(req.Files)),
	)

	report, err := h.usecase.Ingest(ctx, middleware.UserFromContext(ctx), &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toIngestResponse(report))
}

// DeleteProject handles DELETE /projects/{project}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "DeleteProject")

	project := chi.URLParam(r, "project")

	err := h.usecase.DeleteProject(ctx, middleware.UserFromContext(ctx), project)
	if err != nil && !errors.Is(err, entity.ErrProjectNotFound) {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	// Deleting an unknown project succeeds; the end state is the same.
	h.respondJSON(w, http.StatusOK, entity.DeleteProjectResponse{Status: "deleted"})
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
	switch {
	case errors.Is(err, entity.ErrProjectNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "project not found", err)
	case errors.Is(err, entity.ErrEmbeddingProviderMismatch), errors.Is(err, entity.ErrDimensionMismatch):
		h.respondError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrInvalidFile), errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrTooManyFiles), errors.Is(err, entity.ErrTotalSizeTooLarge),
		errors.Is(err, entity.ErrUnsupportedFormat):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
