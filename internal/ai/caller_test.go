package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrack/internal/pkg/rategate"
)

type scriptedTransport struct {
	calls int32
	// errs[i] is returned on attempt i; a nil entry means success.
	errs []error
}

func (s *scriptedTransport) CreateChatCompletion(ctx context.Context, cfg Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if int(n) <= len(s.errs) && s.errs[n-1] != nil {
		return openai.ChatCompletionResponse{}, s.errs[n-1]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "ok"}},
		},
	}, nil
}

func rateLimit() error {
	return &openai.APIError{HTTPStatusCode: 429, Message: "rate limit exceeded"}
}

func newTestCaller(t *testing.T, transport Transport, baseDelay time.Duration) *Caller {
	t.Helper()
	gate, err := rategate.New(DefaultGateCapacity)
	require.NoError(t, err)
	return NewCaller(transport, gate, nil, WithRetry(3, baseDelay))
}

func TestCaller_RetriesRateLimitWithBackoff(t *testing.T) {
	transport := &scriptedTransport{errs: []error{rateLimit(), rateLimit(), nil}}
	// Scaled-down base delay; the shape (d, then 2d) is what matters.
	const d = 20 * time.Millisecond
	c := newTestCaller(t, transport, d)

	start := time.Now()
	resp, err := c.CreateChatCompletion(context.Background(), Config{APIKey: "k"}, openai.ChatCompletionRequest{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Choices[0].Message.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&transport.calls))
	// Backoff is d then 2d.
	assert.GreaterOrEqual(t, elapsed, 3*d)
}

func TestCaller_ExhaustedRetriesSurfaceLastError(t *testing.T) {
	transport := &scriptedTransport{errs: []error{rateLimit(), rateLimit(), rateLimit()}}
	c := newTestCaller(t, transport, time.Millisecond)

	_, err := c.CreateChatCompletion(context.Background(), Config{APIKey: "k"}, openai.ChatCompletionRequest{})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&transport.calls))
}

func TestCaller_NonRateLimitErrorFailsImmediately(t *testing.T) {
	transport := &scriptedTransport{errs: []error{&openai.APIError{HTTPStatusCode: 500, Message: "boom"}}}
	c := newTestCaller(t, transport, time.Second)

	start := time.Now()
	_, err := c.CreateChatCompletion(context.Background(), Config{APIKey: "k"}, openai.ChatCompletionRequest{})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&transport.calls))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCaller_DefaultRetryPolicy(t *testing.T) {
	gate, err := rategate.New(DefaultGateCapacity)
	require.NoError(t, err)
	c := NewCaller(&scriptedTransport{}, gate, nil)

	assert.Equal(t, uint(3), c.attempts)
	assert.Equal(t, 2*time.Second, c.baseDelay)
}

func TestCaller_GateReleasedOnFailure(t *testing.T) {
	transport := &scriptedTransport{errs: []error{errors.New("hard failure")}}
	gate, err := rategate.New(1)
	require.NoError(t, err)
	c := NewCaller(transport, gate, nil, WithRetry(3, time.Millisecond))

	_, err = c.CreateChatCompletion(context.Background(), Config{APIKey: "k"}, openai.ChatCompletionRequest{})
	require.Error(t, err)

	// A failed call must not leak its permit.
	assert.Equal(t, 0, gate.InFlight())
	require.NoError(t, gate.Acquire(context.Background()))
	gate.Release()
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, IsRateLimited(&HostError{StatusCode: 429}))
	assert.True(t, IsRateLimited(newHostError("API Error (429): quota")))
	assert.False(t, IsRateLimited(&openai.APIError{HTTPStatusCode: 500}))
	assert.False(t, IsRateLimited(newHostError("API Error (403): forbidden")))
	assert.False(t, IsRateLimited(errors.New("plain")))
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "https://api.moonshot.cn/v1"},
		{"https://api.moonshot.cn", "https://api.moonshot.cn/v1"},
		{"https://api.openai.com/v1", "https://api.openai.com/v1"},
		{`"https://api.deepseek.com"`, "https://api.deepseek.com/v1"},
		{"https://generativelanguage.googleapis.com/openai/", "https://generativelanguage.googleapis.com/openai/"},
		{"http://localhost:8080/v1", "http://localhost:8080/v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.in), "input %q", tt.in)
	}
}
