package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api"
	chatapi "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/chat"
	projectapi "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/api/project"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/chunker"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/embedding"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/generation"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/rerank"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/loader"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/validator"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/registry"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/repository"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/usecase/chat"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/usecase/ingest"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore/memory"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore/qdrant"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Register the unioffice license; DOCX/XLSX ingestion fails without it.
	if err := loader.InitLicense(cfg.UnidocLicenseAPIKey); err != nil {
		return nil, fmt.Errorf("init unidoc license: %w", err)
	}
	if cfg.UnidocLicenseAPIKey == "" {
		logger.Warn("UNIDOC_LICENSE_API_KEY is not set; DOCX and XLSX files will fail to load")
	}

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	registryRepo := repository.NewRegistryPostgres(db)
	conversationRepo := repository.NewConversationPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var (
		embedder  ingest.Embedder
		generator chat.Generator
		reranker  vectorstore.Reranker
	)

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
		generator = generation.NewMockConnector(logger)
		if cfg.RerankCfg.Enabled {
			reranker = rerank.NewMockConnector(logger)
		}
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		generator = generation.NewConnector(cfg.GenerationCfg, logger)
		if cfg.RerankCfg.Enabled {
			reranker = rerank.NewConnector(cfg.RerankCfg, logger)
		}
	}

	// Initialize vector store
	var store vectorstore.Store
	if cfg.EnableMocks {
		store = memory.NewStore(reranker, cfg.RetrievalCfg.Oversample)
	} else {
		store = qdrant.NewStore(cfg.VectorStoreCfg, reranker, cfg.RetrievalCfg.Oversample, logger)
	}

	// Initialize registry
	projectRegistry := registry.New(registryRepo, cfg.VectorStoreCfg.CollectionPrefix, logger)

	// Initialize validators
	uploadValidator := validator.NewUploadValidator(cfg.FileUploadCfg)
	logger.Info("Validators initialized")

	// Initialize use cases
	ingestUC := ingest.NewUsecase(
		projectRegistry,
		store,
		embedder,
		loader.New(logger),
		chunker.New(cfg.ChunkingCfg.MaxTokens, cfg.ChunkingCfg.OverlapTokens),
		conversationRepo,
		uploadValidator,
		cfg.IngestCfg,
		&cfg.VectorStoreCfg.Retry,
		logger,
	)

	chatUC := chat.NewUsecase(
		projectRegistry,
		store,
		embedder,
		generator,
		conversationRepo,
		uploadValidator,
		cfg.RetrievalCfg,
		&cfg.GenerationCfg.Retry,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	projectHandler := projectapi.NewHandler(ingestUC, cfg.FileUploadCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(projectHandler, chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}
