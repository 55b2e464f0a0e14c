package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"mediatrack/internal/pkg/hostrpc"
)

// Transport performs one chat completion exchange. Two implementations
// exist: DirectTransport speaks HTTP to the endpoint itself, HostTransport
// delegates to the native shell. The strategy is picked once at startup,
// not per call.
type Transport interface {
	CreateChatCompletion(ctx context.Context, cfg Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// DirectTransport talks to an OpenAI-compatible endpoint via go-openai.
type DirectTransport struct {
	httpClient *http.Client
}

// NewDirectTransport creates the standalone-mode transport. A nil client
// uses http.DefaultClient.
func NewDirectTransport(httpClient *http.Client) *DirectTransport {
	return &DirectTransport{httpClient: httpClient}
}

func (t *DirectTransport) CreateChatCompletion(ctx context.Context, cfg Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if t.httpClient != nil {
		clientCfg.HTTPClient = t.httpClient
	}

	if req.Model == "" {
		req.Model = cfg.Model
	}
	return openai.NewClientWithConfig(clientCfg).CreateChatCompletion(ctx, req)
}

// HostTransport delegates the completion to the host shell's ai_chat
// command, which performs the network call out-of-process and returns the
// completion JSON as a string.
type HostTransport struct {
	invoker hostrpc.Invoker
}

func NewHostTransport(invoker hostrpc.Invoker) *HostTransport {
	return &HostTransport{invoker: invoker}
}

// SelectTransport picks the production transport. Host mode requires an
// invoker registered via hostrpc.SetDefault by the embedding shell; turning
// it on without one is a startup error, not a silent fallback.
func SelectTransport(hostMode bool, invoker hostrpc.Invoker, httpClient *http.Client) (Transport, error) {
	if hostMode {
		if invoker == nil {
			return nil, errors.New("host mode is enabled but no host invoker is registered")
		}
		return NewHostTransport(invoker), nil
	}
	return NewDirectTransport(httpClient), nil
}

// hostChatArgs is the ai_chat wire shape.
type hostChatArgs struct {
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Temperature float32                        `json:"temperature"`
	Tools       []openai.Tool                  `json:"tools,omitempty"`
	Config      hostChatConfig                 `json:"config"`
}

type hostChatConfig struct {
	Model   string `json:"model"`
	BaseURL string `json:"baseURL"`
	APIKey  string `json:"apiKey"`
}

func (t *HostTransport) CreateChatCompletion(ctx context.Context, cfg Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	cfg = cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	model := req.Model
	if model == "" {
		model = cfg.Model
	}

	args := hostChatArgs{
		Messages:    req.Messages,
		Temperature: req.Temperature,
		Tools:       req.Tools,
		Config: hostChatConfig{
			Model:   model,
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		},
	}

	payload, err := t.invoker(ctx, hostrpc.CommandAIChat, args)
	if err != nil {
		return openai.ChatCompletionResponse{}, newHostError(err.Error())
	}

	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("decode host ai_chat response: %w", err)
	}
	return resp, nil
}
