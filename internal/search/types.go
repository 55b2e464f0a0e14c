package search

import (
	"errors"
	"strings"
)

// ProviderID identifies a search backend.
type ProviderID string

const (
	ProviderGoogle     ProviderID = "google"
	ProviderSerper     ProviderID = "serper"
	ProviderDuckDuckGo ProviderID = "duckduckgo"
	ProviderYandex     ProviderID = "yandex"
)

// Type selects between the text and image flavors of a query.
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// MaxResults is the cardinality every router response is capped at.
const MaxResults = 5

var (
	ErrMissingCredentials      = errors.New("search provider credentials missing")
	ErrImageSearchUnsupported  = errors.New("image search not supported by provider")
	ErrUnsupportedProvider     = errors.New("unsupported search provider")
	ErrProviderQuotaExhausted  = errors.New("search provider quota exhausted")
	ErrProviderKeyInvalid      = errors.New("search provider key invalid or out of quota")
	ErrInvalidProviderResponse = errors.New("invalid response from search provider")
)

// Config is the immutable per-call provider selection. It is resolved once
// from the settings snapshot at call time.
type Config struct {
	Provider ProviderID `json:"provider" mapstructure:"provider"`
	APIKey   string     `json:"api_key,omitempty" mapstructure:"api_key"`
	CX       string     `json:"cx,omitempty" mapstructure:"cx"`
	User     string     `json:"user,omitempty" mapstructure:"user"`
}

// Clean normalizes credential fields: surrounding whitespace is dropped and
// the literal strings "undefined" and "null" (leaked by loosely typed
// frontends) count as absent.
func (c Config) Clean() Config {
	c.APIKey = cleanOpt(c.APIKey)
	c.CX = cleanOpt(c.CX)
	c.User = cleanOpt(c.User)
	return c
}

func cleanOpt(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "undefined", "null":
		return ""
	}
	return s
}

// HasCredentials reports whether the configured provider can be called at
// all. DuckDuckGo is keyless and always callable.
func (c Config) HasCredentials() bool {
	switch c.Provider {
	case ProviderDuckDuckGo:
		return true
	case ProviderGoogle:
		return c.APIKey != "" && c.CX != ""
	case ProviderSerper:
		return c.APIKey != ""
	case ProviderYandex:
		return c.APIKey != "" && c.User != ""
	default:
		return false
	}
}

// Result is the normalized shape every provider response is mapped into.
// Downstream code must not depend on provider-specific fields.
type Result struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link,omitempty"`
	Image   string `json:"image,omitempty"`
}
