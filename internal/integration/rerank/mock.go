package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/vectorstore"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector scores documents by lexical word overlap with the query.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Rerank(ctx context.Context, query string, documents []string) ([]vectorstore.Score, error) {
	ctxzap.Debug(ctx, "[MOCK] reranking candidates", zap.Int("document_count", len(documents)))

	queryWords := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[strings.Trim(w, ".,;:!?\"'()")] = true
	}

	scores := make([]vectorstore.Score, len(documents))
	for i, doc := range documents {
		var overlap, total float64
		for _, w := range strings.Fields(strings.ToLower(doc)) {
			total++
			if queryWords[strings.Trim(w, ".,;:!?\"'()")] {
				overlap++
			}
		}
		var score float64
		if total > 0 {
			score = overlap / total
		}
		scores[i] = vectorstore.Score{Index: i, Score: score}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}
