// Package qdrant adapts the Qdrant REST API to the vector store interface.
// One Qdrant collection per project keeps projects fully isolated; point
// upserts go out as a single wait=true batch so a call either lands whole
// or not at all.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
	pkghttp "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Store struct {
	config     config.VectorStoreConfig
	connector  *pkghttp.Connector
	reranker   vectorstore.Reranker
	oversample int
	logger     *zap.Logger

	// dimensions caches the established dimensionality per collection so
	// mismatched batches are rejected before leaving the process.
	mu         sync.RWMutex
	dimensions map[string]int
}

var _ vectorstore.Store = &Store{}

func NewStore(cfg config.VectorStoreConfig, reranker vectorstore.Reranker, oversample int, logger *zap.Logger) *Store {
	connCfg := &pkghttp.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	opts := []pkghttp.HttpOpts{
		pkghttp.WithRequestTimeout(cfg.RequestTimeout),
		pkghttp.WithConnClientTimeout(cfg.ConnTimeout),
		pkghttp.WithClientKeepAlive(cfg.KeepAlive),
		pkghttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkghttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkghttp.WithRequestLogging(),
	}

	return &Store{
		config:     cfg,
		connector:  pkghttp.NewConnector(connCfg, opts...),
		reranker:   reranker,
		oversample: oversample,
		logger:     logger,
		dimensions: make(map[string]int),
	}
}

type vectorsParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorsParams `json:"vectors"`
}

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors vectorsParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection is idempotent: it creates the collection when absent and
// verifies the established dimensionality when present.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	req := createCollectionRequest{
		Vectors: vectorsParams{Size: dimension, Distance: "Cosine"},
	}

	err := s.doRequest(ctx, "ensure_collection", collection,
		http.MethodPut, "/collections/"+collection, req, nil)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		// Conflict means the collection already exists; verify its schema
		// instead of failing.
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusConflict {
			return err
		}

		var info collectionInfoResponse
		if err := s.doRequest(ctx, "ensure_collection", collection,
			http.MethodGet, "/collections/"+collection, nil, &info); err != nil {
			return err
		}
		if got := info.Result.Config.Params.Vectors.Size; got != dimension {
			return fmt.Errorf("%w: collection %s holds %d-dimensional vectors, got %d",
				entity.ErrDimensionMismatch, collection, got, dimension)
		}
	}

	s.mu.Lock()
	s.dimensions[collection] = dimension
	s.mu.Unlock()

	ctxzap.Debug(ctx, "collection ensured",
		zap.String("collection", collection),
		zap.Int("dimension", dimension),
	)
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

func (s *Store) Upsert(ctx context.Context, collection string, chunks []entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.RLock()
	dimension, ok := s.dimensions[collection]
	s.mu.RUnlock()
	if !ok {
		return &entity.VectorStoreError{
			Op:         "upsert",
			Collection: collection,
			Err:        fmt.Errorf("collection was not ensured"),
		}
	}

	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != dimension {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection %s expects %d",
				entity.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), collection, dimension)
		}
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.Vector,
			Payload: map[string]any{
				"text":        chunk.Text,
				"document_id": chunk.DocumentID,
				"filename":    chunk.Filename,
				"ordinal":     chunk.Ordinal,
				"page":        chunk.Page,
				"section":     chunk.Section,
			},
		})
	}

	// wait=true blocks until the batch is applied, so a 2xx means the whole
	// batch is visible to subsequent searches.
	err := s.doRequest(ctx, "upsert", collection,
		http.MethodPut, "/collections/"+collection+"/points?wait=true", upsertRequest{Points: points}, nil)
	if err != nil {
		return err
	}

	ctxzap.Debug(ctx, "points upserted",
		zap.String("collection", collection),
		zap.Int("point_count", len(points)),
	)
	return nil
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func (s *Store) Search(ctx context.Context, collection, query string, vector []float32, k int) ([]entity.RetrievedChunk, error) {
	req := searchRequest{
		Vector:      vector,
		Limit:       vectorstore.FetchSize(k, s.oversample, s.reranker),
		WithPayload: true,
	}

	var resp searchResponse
	err := s.doRequest(ctx, "search", collection,
		http.MethodPost, "/collections/"+collection+"/points/search", req, &resp)
	if err != nil {
		return nil, err
	}

	candidates := make([]entity.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		c := entity.RetrievedChunk{Score: r.Score}
		if v, ok := r.Payload["text"].(string); ok {
			c.Text = v
		}
		if v, ok := r.Payload["filename"].(string); ok {
			c.Filename = v
		}
		if v, ok := r.Payload["ordinal"].(float64); ok {
			c.Ordinal = int(v)
		}
		if v, ok := r.Payload["page"].(float64); ok {
			c.Page = int(v)
		}
		candidates = append(candidates, c)
	}

	return vectorstore.ApplyRerank(ctx, s.reranker, query, candidates, k)
}

// DeleteCollection removes all vectors for a project. Deleting a
// non-existent collection is a no-op, not an error.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	err := s.doRequest(ctx, "delete_collection", collection,
		http.MethodDelete, "/collections/"+collection, nil, nil)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			err = nil
		}
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.dimensions, collection)
	s.mu.Unlock()

	ctxzap.Info(ctx, "collection deleted", zap.String("collection", collection))
	return nil
}

// doRequest wraps connector faults into the store error taxonomy: network
// faults and 5xx/429 are transient, other HTTP errors are fatal.
func (s *Store) doRequest(ctx context.Context, op, collection, method, endpoint string, reqBody, respBody any) error {
	var opts []pkghttp.RequestOpt
	if s.config.APIKey != "" {
		opts = append(opts, pkghttp.WithHeader("api-key", s.config.APIKey))
	}

	err := s.connector.DoRequest(ctx, method, endpoint, reqBody, respBody, opts...)
	if err == nil {
		return nil
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return &entity.VectorStoreError{Op: op, Collection: collection, Transient: true, Err: err}
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		// Conflict and NotFound carry ensure/delete semantics; let the
		// caller inspect them.
		if httpErr.StatusCode == http.StatusConflict || httpErr.StatusCode == http.StatusNotFound {
			return err
		}
		return &entity.VectorStoreError{Op: op, Collection: collection, Transient: httpErr.Transient(), Err: err}
	}

	return &entity.VectorStoreError{Op: op, Collection: collection, Err: err}
}
