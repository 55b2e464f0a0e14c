package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SerperProvider posts to the serper.dev Google-proxy endpoints. Text search
// hits the organic-results endpoint; image search hits the images endpoint.
type SerperProvider struct {
	baseProvider
	endpoint string
	apiKey   string
}

// NewSerperProvider creates a Serper provider. An empty endpoint selects the
// public API host.
func NewSerperProvider(client *http.Client, endpoint, apiKey string) *SerperProvider {
	if endpoint == "" {
		endpoint = "https://google.serper.dev"
	}
	return &SerperProvider{baseProvider: newBaseProvider(client), endpoint: endpoint, apiKey: apiKey}
}

func (p *SerperProvider) ID() ProviderID { return ProviderSerper }

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
	Images []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
}

func (p *SerperProvider) Search(ctx context.Context, query string, typ Type) ([]Result, error) {
	if p.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	path := "/search"
	if typ == TypeImage {
		path = "/images"
	}

	body, err := json.Marshal(map[string]interface{}{"q": query, "safe": "off", "num": 8})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-KEY", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		// Invalid key or exhausted quota. Not retryable.
		return nil, fmt.Errorf("%w: serper (403)", ErrProviderKeyInvalid)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: serper (429)", ErrProviderQuotaExhausted)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: serper status %d", ErrInvalidProviderResponse, resp.StatusCode)
	}

	var s serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}

	var results []Result
	if typ == TypeImage {
		for _, img := range s.Images {
			if img.ImageURL != "" {
				results = append(results, Result{Image: img.ImageURL})
			}
		}
		return results, nil
	}

	for _, item := range s.Organic {
		results = append(results, Result{Title: item.Title, Snippet: item.Snippet, Link: item.Link})
	}
	return results, nil
}
