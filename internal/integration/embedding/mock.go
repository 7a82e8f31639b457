package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector produces deterministic bag-of-words hash embeddings.
// Texts sharing words land near each other in vector space, so retrieval
// behaves sensibly in mock mode and tests without any external provider.
type MockConnector struct {
	dimension int
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) Provider() string { return "mock" }

func (m *MockConnector) Dimension() int { return m.dimension }

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding batch", zap.Int("text_count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.embed(text)
	}
	return vectors, nil
}

func (m *MockConnector) embed(text string) []float32 {
	vec := make([]float32, m.dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(m.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
