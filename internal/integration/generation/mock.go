package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers by echoing the question and the retrieved context,
// so end-to-end flows can verify that grounding actually reached the model.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Generate(ctx context.Context, messages []entity.PromptMessage) (string, error) {
	ctxzap.Debug(ctx, "[MOCK] generating completion", zap.Int("message_count", len(messages)))

	var query, contextText string
	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			contextText = msg.Content
		case entity.RoleUser:
			query = msg.Content
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answering %q based on the provided documents.", query)
	if idx := strings.Index(contextText, "\n"); idx > 0 {
		b.WriteString(" Context begins: ")
		b.WriteString(strings.TrimSpace(firstLines(contextText, 2)))
	}
	return b.String(), nil
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " ")
}
