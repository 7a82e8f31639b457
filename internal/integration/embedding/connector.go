// Package embedding talks to an OpenAI-compatible embeddings API. The
// connector declares a fixed dimensionality and provider identity; callers
// decide retry policy, the connector only classifies failures.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/common"
	pkghttp "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.EmbeddingConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.EmbeddingConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Provider identifies this embedder instance. A collection written by one
// provider/model must be queried by the same one.
func (c *Connector) Provider() string {
	return "openai:" + c.config.Model
}

// Dimension is the fixed output vector length for this provider instance.
func (c *Connector) Dimension() int {
	return c.config.Dimension
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedBatch maps texts to vectors, one per input, order preserved.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding batch", zap.Int("text_count", len(texts)))

	req := embedRequest{Model: c.config.Model, Input: texts}
	var resp embedResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return nil, c.wrapError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, c.wrapError(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	// The API is allowed to reorder data entries; index restores input order.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("%w: provider returned %d dimensions, expected %d",
				entity.ErrDimensionMismatch, len(d.Embedding), c.config.Dimension)
		}
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

func (c *Connector) wrapError(err error) error {
	transient := false
	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		transient = true
	}
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		transient = httpErr.Transient()
	}
	return &entity.EmbeddingProviderError{
		Provider:  c.Provider(),
		Transient: transient,
		Err:       err,
	}
}
