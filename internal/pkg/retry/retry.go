package retry

import (
	"context"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 100 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// DoTransient runs fn with bounded exponential backoff, retrying only
// transient provider/store faults. Fatal error kinds abort immediately, as
// does context cancellation.
func DoTransient(ctx context.Context, cfg *RetryConfig, fn func() error) error {
	opts := append(cfg.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(entity.IsTransient),
	)
	return retry.Do(fn, opts...)
}
