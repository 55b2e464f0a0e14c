package ai

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"mediatrack/internal/pkg/rategate"
)

const (
	// DefaultGateCapacity bounds in-flight completion calls across all
	// logical operations, keeping the process under upstream rate limits.
	DefaultGateCapacity = 2

	defaultAttempts  = 3
	defaultBaseDelay = 2 * time.Second
)

// Caller wraps a Transport with the admission gate and the retry policy:
// at most 3 attempts with 2s/4s backoff, and only on rate-limit errors.
// Every attempt, retries included, passes through the gate individually so
// a backing-off caller does not hold a slot while it sleeps.
type Caller struct {
	transport Transport
	gate      *rategate.Gate
	log       *zap.Logger

	attempts  uint
	baseDelay time.Duration
}

// CallerOption mutates Caller construction.
type CallerOption func(*Caller)

// WithRetry overrides attempt count and base delay. Used by tests.
func WithRetry(attempts uint, baseDelay time.Duration) CallerOption {
	return func(c *Caller) {
		c.attempts = attempts
		c.baseDelay = baseDelay
	}
}

// NewCaller creates a Caller over transport and gate.
func NewCaller(transport Transport, gate *rategate.Gate, log *zap.Logger, opts ...CallerOption) *Caller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Caller{
		transport: transport,
		gate:      gate,
		log:       log,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChatCompletion performs one logical completion call under the gate
// and retry policy. Exhausting retries surfaces the last error.
func (c *Caller) CreateChatCompletion(ctx context.Context, cfg Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse

	err := retry.Do(
		func() error {
			if err := c.gate.Acquire(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			defer c.gate.Release()

			r, err := c.transport.CreateChatCompletion(ctx, cfg, req)
			if err != nil {
				if IsRateLimited(err) {
					return err
				}
				return retry.Unrecoverable(err)
			}
			resp = r
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("model call rate limited, backing off",
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	return resp, err
}
