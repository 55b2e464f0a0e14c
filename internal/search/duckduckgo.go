package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DuckDuckGoProvider queries the public instant-answer endpoint. It needs no
// credentials, which makes it the universal text-search fallback. It has no
// image support.
type DuckDuckGoProvider struct {
	baseProvider
	endpoint string
}

// NewDuckDuckGoProvider creates a DuckDuckGo provider. An empty endpoint
// selects the public API host.
func NewDuckDuckGoProvider(client *http.Client, endpoint string) *DuckDuckGoProvider {
	if endpoint == "" {
		endpoint = "https://api.duckduckgo.com"
	}
	return &DuckDuckGoProvider{baseProvider: newBaseProvider(client), endpoint: endpoint}
}

func (p *DuckDuckGoProvider) ID() ProviderID { return ProviderDuckDuckGo }

type duckduckgoResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search builds results from the abstract (placed first when present) plus
// up to MaxResults related-topic entries, each carrying the same text as
// title and snippet.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, typ Type) ([]Result, error) {
	if typ == TypeImage {
		return nil, ErrImageSearchUnsupported
	}

	reqURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", p.endpoint, url.QueryEscape(query))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: duckduckgo status %d", ErrInvalidProviderResponse, resp.StatusCode)
	}

	var ddg duckduckgoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}

	var results []Result
	if ddg.AbstractText != "" && ddg.AbstractURL != "" {
		title := ddg.Heading
		if title == "" {
			title = ddg.AbstractText
		}
		results = append(results, Result{
			Title:   title,
			Snippet: ddg.AbstractText,
			Link:    ddg.AbstractURL,
		})
	}

	topics := 0
	for _, topic := range ddg.RelatedTopics {
		if topics >= MaxResults {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		topics++
		results = append(results, Result{
			Title:   topic.Text,
			Snippet: topic.Text,
			Link:    topic.FirstURL,
		})
	}

	return results, nil
}
