package ai

import (
	"errors"
	"os"
	"strings"
)

// EnvAPIKey is the development-convenience fallback consulted when no API
// key is configured in settings.
const EnvAPIKey = "MEDIATRACK_AI_API_KEY"

const defaultBaseURL = "https://api.moonshot.cn/v1"

var ErrMissingAPIKey = errors.New("AI API key is required")

// Config identifies the chat completion endpoint for one call.
type Config struct {
	Model   string `json:"model" mapstructure:"model"`
	BaseURL string `json:"baseURL" mapstructure:"base_url"`
	APIKey  string `json:"apiKey" mapstructure:"api_key"`
}

// Resolve fills defaults: a sanitized base URL and the environment API key
// when none is configured.
func (c Config) Resolve() Config {
	c.BaseURL = NormalizeBaseURL(c.BaseURL)
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAPIKey)
	}
	return c
}

// Validate checks that a completion call can be attempted.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// NormalizeBaseURL strips stray quoting users paste into settings and
// appends the /v1 prefix the big OpenAI-compatible hosts expect when it is
// missing.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	base = strings.TrimSuffix(base, ")")
	base = strings.Trim(base, `"'`)
	if base == "" {
		return defaultBaseURL
	}

	hasV1 := strings.HasSuffix(base, "/v1") || strings.Contains(base, "/v1/")
	// Gemini's OpenAI-compat endpoint keeps its own path layout.
	isCompatProxy := strings.Contains(base, "/openai/")

	needsV1 := !hasV1 && !isCompatProxy &&
		(strings.Contains(base, "openai.com") ||
			strings.Contains(base, "deepseek.com") ||
			strings.Contains(base, "mistral.ai") ||
			strings.Contains(base, "moonshot.cn"))
	if needsV1 {
		base = strings.TrimSuffix(base, "/") + "/v1"
	}
	return base
}
