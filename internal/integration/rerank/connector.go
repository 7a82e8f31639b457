// Package rerank talks to a Cohere-style rerank API used as the second
// retrieval stage: vector search oversamples candidates, rerank reorders
// them by relevance to the query.
package rerank

import (
	"context"
	"errors"
	"net/http"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/common"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
	pkghttp "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.RerankConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.RerankConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores documents against the query. Results come back ordered by
// descending relevance; Index refers into the input documents slice.
func (c *Connector) Rerank(ctx context.Context, query string, documents []string) ([]vectorstore.Score, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "reranking candidates", zap.Int("document_count", len(documents)))

	req := rerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	}
	var resp rerankResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return nil, c.wrapError(err)
	}

	scores := make([]vectorstore.Score, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			continue
		}
		scores = append(scores, vectorstore.Score{Index: r.Index, Score: r.RelevanceScore})
	}
	return scores, nil
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
	return &entity.VectorStoreError{Op: "rerank", Transient: transient, Err: err}
}
