// Package generation talks to an OpenAI-compatible chat completions API.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/integration/common"
	pkghttp "github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.GenerationConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.GenerationConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces a completion for the assembled prompt. An empty model
// answer is an error, never an empty string handed to the caller.
func (c *Connector) Generate(ctx context.Context, messages []entity.PromptMessage) (string, error) {
	ctxzap.Debug(ctx, "requesting completion",
		zap.String("model", c.config.Model),
		zap.Int("message_count", len(messages)))

	req := completionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	var resp completionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp); err != nil {
		return "", c.wrapError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", c.wrapError(fmt.Errorf("provider returned no completion content"))
	}

	return resp.Choices[0].Message.Content, nil
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
	return &entity.GenerationError{Transient: transient, Err: err}
}
