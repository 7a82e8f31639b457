// Package ingest implements the document ingestion pipeline: uploaded files
// are parsed, chunked, embedded, and written into the project's collection.
package ingest

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/lock"
	pkgRetry "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/retry"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// embedBatchSize caps how many chunk texts go to the provider per call.
const embedBatchSize = 64

// IngestUsecase orchestrates per-file ingestion with partial failure: one
// broken file never aborts its siblings, and a file's chunks reach the
// collection either all together or not at all.
type IngestUsecase struct {
	registry      ProjectRegistry
	store         VectorStore
	embedder      Embedder
	loader        Loader
	chunker       Chunker
	conversations ConversationRepository
	validator     *validator.Validator
	projectLocks  *lock.KeyedMutex
	workers       int
	retryCfg      *pkgRetry.RetryConfig
	logger        *zap.Logger
}

func NewUsecase(
	registry ProjectRegistry,
	store VectorStore,
	embedder Embedder,
	loader Loader,
	chunker Chunker,
	conversations ConversationRepository,
	validator *validator.Validator,
	ingestCfg config.IngestConfig,
	retryCfg *pkgRetry.RetryConfig,
	logger *zap.Logger,
) *IngestUsecase {
	workers := ingestCfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &IngestUsecase{
		registry:      registry,
		store:         store,
		embedder:      embedder,
		loader:        loader,
		chunker:       chunker,
		conversations: conversations,
		validator:     validator,
		projectLocks:  lock.NewKeyedMutex(),
		workers:       workers,
		retryCfg:      retryCfg,
		logger:        logger,
	}
}

// Ingest processes one upload batch into the user's project collection.
// The returned report carries one result per file in input order; only
// whole-batch preconditions (validation, project registration, collection
// creation) make Ingest itself fail.
func (uc *IngestUsecase) Ingest(ctx context.Context, user string, req *entity.IngestRequest) (*entity.IngestReport, error) {
	if err := uc.validator.ValidateIngest(req); err != nil {
		return nil, err
	}

	// One writer per project at a time. Concurrent uploads to different
	// projects proceed in parallel.
	unlock := uc.projectLocks.Lock(user + "/" + req.Project)
	defer unlock()

	project, err := uc.registry.Ensure(ctx, user, req.Project, uc.embedder.Provider(), uc.embedder.Dimension())
	if err != nil {
		return nil, err
	}

	err = pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		return uc.store.EnsureCollection(ctx, project.CollectionID, project.EmbeddingDimension)
	})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "ingestion started",
		zap.String("project", req.Project),
		zap.String("collection_id", project.CollectionID),
		zap.Int("file_count", len(req.Files)),
	)

	report := &entity.IngestReport{
		Project: req.Project,
		Results: make([]entity.FileIngestResult, len(req.Files)),
	}

	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup
	for i, header := range req.Files {
		wg.Add(1)
		go func(i int, header *multipart.FileHeader) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			filename := validator.SanitizeFilename(header.Filename)
			count, err := uc.ingestFile(ctx, project.CollectionID, header)
			report.Results[i] = entity.FileIngestResult{
				Filename:   filename,
				ChunkCount: count,
				Err:        err,
			}
			if err != nil {
				ctxzap.Warn(ctx, "file ingestion failed",
					zap.String("filename", filename),
					zap.Error(err),
				)
			}
		}(i, header)
	}
	wg.Wait()

	ctxzap.Info(ctx, "ingestion finished",
		zap.String("project", req.Project),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", len(report.Results)-report.Succeeded()),
	)

	return report, nil
}

func (uc *IngestUsecase) ingestFile(ctx context.Context, collection string, header *multipart.FileHeader) (int, error) {
	data, err := readFile(header)
	if err != nil {
		return 0, &entity.LoadError{Filename: header.Filename, Err: err}
	}

	segments, err := uc.loader.Load(ctx, *data)
	if err != nil {
		return 0, err
	}

	chunks := uc.chunker.Split(uuid.New().String(), data.Filename, segments)
	if len(chunks) == 0 {
		return 0, &entity.LoadError{Filename: data.Filename, Err: fmt.Errorf("no text content extracted")}
	}

	if err := uc.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	// Single upsert call keeps the file atomic in the collection.
	err = pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		return uc.store.Upsert(ctx, collection, chunks)
	})
	if err != nil {
		return 0, err
	}

	return len(chunks), nil
}

func (uc *IngestUsecase) embedChunks(ctx context.Context, chunks []entity.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		var vectors [][]float32
		err := pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
			var embedErr error
			vectors, embedErr = uc.embedder.EmbedBatch(ctx, texts)
			return embedErr
		})
		if err != nil {
			return err
		}

		for i := range batch {
			batch[i].Vector = vectors[i]
		}
	}
	return nil
}

// DeleteProject tears down everything the project owns: its collection,
// its conversations, and its registration. Deleting the collection first
// means a failure part-way leaves the registration visible for a retry.
func (uc *IngestUsecase) DeleteProject(ctx context.Context, user, project string) error {
	if err := uc.validator.ValidateProjectName(project); err != nil {
		return err
	}

	unlock := uc.projectLocks.Lock(user + "/" + project)
	defer unlock()

	record, err := uc.registry.Lookup(ctx, user, project)
	if err != nil {
		return err
	}

	err = pkgRetry.DoTransient(ctx, uc.retryCfg, func() error {
		return uc.store.DeleteCollection(ctx, record.CollectionID)
	})
	if err != nil {
		return err
	}

	if err := uc.conversations.DeleteByProject(ctx, user, project); err != nil {
		return err
	}

	if err := uc.registry.Delete(ctx, user, project); err != nil {
		return err
	}

	ctxzap.Info(ctx, "project deleted",
		zap.String("user", user),
		zap.String("project", project),
		zap.String("collection_id", record.CollectionID),
	)
	return nil
}

func readFile(header *multipart.FileHeader) (*entity.FileData, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &entity.FileData{
		Filename:    validator.SanitizeFilename(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
