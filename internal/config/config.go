package config

import (
	"flag"
	"fmt"
	"time"

	pkgRetry "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	VectorStoreCfg VectorStoreConfig `envPrefix:"VECTOR_STORE_"`
	EmbeddingCfg   EmbeddingConfig   `envPrefix:"EMBEDDING_"`
	GenerationCfg  GenerationConfig  `envPrefix:"GENERATION_"`
	RerankCfg      RerankConfig      `envPrefix:"RERANK_"`

	// Pipeline configuration
	ChunkingCfg  ChunkingConfig  `envPrefix:"CHUNK_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`
	IngestCfg    IngestConfig    `envPrefix:"INGEST_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// UniDoc license key; DOCX and XLSX parsing require one.
	UnidocLicenseAPIKey string `env:"UNIDOC_LICENSE_API_KEY"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration: replaces all provider connectors with
	// deterministic in-process mocks (no external services needed)
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// VectorStoreConfig points at the vector database (Qdrant REST API).
type VectorStoreConfig struct {
	HTTPClientConfig
	APIKey string `env:"API_KEY"`
	// CollectionPrefix namespaces collections so several deployments can
	// share one cluster.
	CollectionPrefix string               `env:"COLLECTION_PREFIX" envDefault:"rag_"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// EmbeddingConfig points at an OpenAI-compatible embeddings API.
type EmbeddingConfig struct {
	HTTPClientConfig
	Endpoint  string               `env:"ENDPOINT" envDefault:"/v1/embeddings"`
	Model     string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimension int                  `env:"DIMENSION" envDefault:"1536"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// GenerationConfig points at an OpenAI-compatible chat completions API.
type GenerationConfig struct {
	HTTPClientConfig
	Endpoint    string               `env:"ENDPOINT" envDefault:"/v1/chat/completions"`
	Model       string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	Temperature float64              `env:"TEMPERATURE" envDefault:"0.2"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// RerankConfig points at a Cohere-style rerank API. Optional: when disabled
// retrieval is single-stage vector similarity.
type RerankConfig struct {
	HTTPClientConfig
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Endpoint string `env:"ENDPOINT" envDefault:"/v1/rerank"`
	Model    string `env:"MODEL" envDefault:"rerank-english-v3.0"`
}

// ChunkingConfig sizes passages for the embedding context window.
type ChunkingConfig struct {
	MaxTokens     int `env:"MAX_TOKENS" envDefault:"400"`
	OverlapTokens int `env:"OVERLAP_TOKENS" envDefault:"50"`
}

// RetrievalConfig controls two-stage retrieval: Oversample*TopK candidates
// are fetched by vector similarity, then re-ranked and truncated to TopK.
type RetrievalConfig struct {
	TopK       int `env:"TOP_K" envDefault:"4"`
	Oversample int `env:"OVERSAMPLE" envDefault:"3"`
}

// IngestConfig bounds ingestion parallelism per request.
type IngestConfig struct {
	Workers int `env:"WORKERS" envDefault:"4"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`  // 10 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"52428800"` // 50 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"30"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"67108864"` // multipart memory cap
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.EmbeddingCfg.Dimension < 1 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension)
	}
	if cfg.ChunkingCfg.MaxTokens < 1 {
		return fmt.Errorf("CHUNK_MAX_TOKENS must be positive, got %d", cfg.ChunkingCfg.MaxTokens)
	}
	if cfg.ChunkingCfg.OverlapTokens < 0 || cfg.ChunkingCfg.OverlapTokens >= cfg.ChunkingCfg.MaxTokens {
		return fmt.Errorf("CHUNK_OVERLAP_TOKENS must be in [0, CHUNK_MAX_TOKENS), got %d", cfg.ChunkingCfg.OverlapTokens)
	}
	if cfg.RetrievalCfg.TopK < 1 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalCfg.TopK)
	}
	if cfg.RetrievalCfg.Oversample < 1 {
		return fmt.Errorf("RETRIEVAL_OVERSAMPLE must be positive, got %d", cfg.RetrievalCfg.Oversample)
	}
	if cfg.IngestCfg.Workers < 1 || cfg.IngestCfg.Workers > 64 {
		return fmt.Errorf("INGEST_WORKERS must be between 1 and 64, got %d", cfg.IngestCfg.Workers)
	}
	if !cfg.EnableMocks {
		if cfg.VectorStoreCfg.Url == "" {
			return fmt.Errorf("VECTOR_STORE_SERVICE_URL is required unless ENABLE_MOCKS=true")
		}
		if cfg.EmbeddingCfg.Url == "" {
			return fmt.Errorf("EMBEDDING_SERVICE_URL is required unless ENABLE_MOCKS=true")
		}
		if cfg.GenerationCfg.Url == "" {
			return fmt.Errorf("GENERATION_SERVICE_URL is required unless ENABLE_MOCKS=true")
		}
		if cfg.RerankCfg.Enabled && cfg.RerankCfg.Url == "" {
			return fmt.Errorf("RERANK_SERVICE_URL is required when RERANK_ENABLED=true")
		}
	}
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
