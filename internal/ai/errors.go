package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	openai "github.com/sashabaranov/go-openai"
)

// HostError wraps a failure reported by the host shell, which only surfaces
// errors as formatted strings ("API Error (429): ...").
type HostError struct {
	StatusCode int
	Message    string
}

func (e *HostError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("host ai_chat failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("host ai_chat failed: %s", e.Message)
}

var hostStatusPattern = regexp.MustCompile(`\((\d{3})\)`)

// newHostError extracts an HTTP status code from the host's error string
// when one is embedded.
func newHostError(msg string) *HostError {
	he := &HostError{Message: msg}
	if m := hostStatusPattern.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			he.StatusCode = code
		}
	}
	return he
}

// IsRateLimited reports whether err is an HTTP 429 from any transport.
// Only rate-limit errors are retried; everything else propagates.
func IsRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429
	}
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.StatusCode == 429
	}
	return false
}
