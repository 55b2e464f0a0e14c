package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"mediatrack/internal/ai"
	"mediatrack/internal/search"
)

// maxTurns bounds one conversation to 5 round trips. Hitting the budget is
// a normal outcome that yields an empty answer, not an error.
const maxTurns = 5

const (
	toolWebSearch = "web_search"
	// toolNativeEcho is Moonshot's builtin search function. The model runs
	// the search itself; the tool result just echoes the arguments back to
	// keep the turn-taking protocol valid.
	toolNativeEcho = "$web_search"
)

const noResultsMessage = "No relevant results found."

// CompletionCaller is the retried, rate-gated completion client the engine
// drives. Satisfied by *ai.Caller.
type CompletionCaller interface {
	CreateChatCompletion(ctx context.Context, cfg ai.Config, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Searcher dispatches one search query. Satisfied by *search.Router.
type Searcher interface {
	Search(ctx context.Context, query string, cfg search.Config, typ search.Type) []search.Result
}

// Engine drives one multi-turn exchange with the model, executing the
// search tool calls it issues and feeding results back until it produces a
// final text answer or the turn budget runs out.
type Engine struct {
	caller CompletionCaller
	router Searcher
	log    *zap.Logger
}

func NewEngine(caller CompletionCaller, router Searcher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{caller: caller, router: router, log: log}
}

// Run sends messages and loops over tool calls until the model answers in
// plain text. It returns the final answer plus every raw search result
// gathered along the way, which callers use as a fallback when the answer
// has no parsable structure. Only a failure of the very first completion
// is returned as an error; once any exchange succeeded, later failures
// degrade to an empty answer so partial results still reach the user.
func (e *Engine) Run(ctx context.Context, snap Snapshot, messages []openai.ChatCompletionMessage) (string, []search.Result, error) {
	req := openai.ChatCompletionRequest{
		Model:       snap.AI.Model,
		Messages:    messages,
		Temperature: 0.7,
	}
	// An unused tool declaration still changes model behavior, so it is
	// attached only when search is actually available.
	if snap.searchActive() {
		req.Tools = searchToolset()
	}

	var collected []search.Result
	for turn := 0; turn < maxTurns; turn++ {
		resp, err := e.caller.CreateChatCompletion(ctx, snap.AI, req)
		if err != nil {
			if turn == 0 {
				return "", nil, fmt.Errorf("chat completion: %w", err)
			}
			e.log.Warn("completion failed mid-conversation",
				zap.Int("turn", turn),
				zap.Error(err))
			return "", collected, nil
		}
		if len(resp.Choices) == 0 {
			e.log.Warn("completion returned no choices", zap.Int("turn", turn))
			return "", collected, nil
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, collected, nil
		}

		req.Messages = append(req.Messages, msg)
		for _, call := range msg.ToolCalls {
			content := e.answerToolCall(ctx, snap, call, &collected)
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    content,
			})
		}
	}

	e.log.Warn("turn budget exhausted without a final answer",
		zap.Int("turns", maxTurns))
	return "", collected, nil
}

func (e *Engine) answerToolCall(ctx context.Context, snap Snapshot, call openai.ToolCall, collected *[]search.Result) string {
	switch call.Function.Name {
	case toolNativeEcho:
		return call.Function.Arguments

	case toolWebSearch:
		query := gjson.Get(call.Function.Arguments, "query").String()
		if query == "" {
			return "Error: the search arguments could not be parsed."
		}
		e.log.Debug("model requested search", zap.String("query", query))
		results := e.router.Search(ctx, query, snap.Search, search.TypeText)
		*collected = append(*collected, results...)
		if len(results) == 0 {
			return noResultsMessage
		}
		payload, err := json.Marshal(results)
		if err != nil {
			return noResultsMessage
		}
		return string(payload)

	default:
		return fmt.Sprintf("Error: unknown tool %q.", call.Function.Name)
	}
}

func searchToolset() []openai.Tool {
	return []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolWebSearch,
			Description: "Search the web for current information about media titles, release dates and updates.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query."}
				},
				"required": ["query"]
			}`),
		},
	}}
}
