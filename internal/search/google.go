package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleProvider queries the Custom Search JSON API. It requires both an API
// key and a search-engine id (cx).
type GoogleProvider struct {
	baseProvider
	endpoint string
	apiKey   string
	cx       string
}

// NewGoogleProvider creates a Google provider. An empty endpoint selects the
// public API host.
func NewGoogleProvider(client *http.Client, endpoint, apiKey, cx string) *GoogleProvider {
	if endpoint == "" {
		endpoint = "https://www.googleapis.com/customsearch/v1"
	}
	return &GoogleProvider{baseProvider: newBaseProvider(client), endpoint: endpoint, apiKey: apiKey, cx: cx}
}

func (p *GoogleProvider) ID() ProviderID { return ProviderGoogle }

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
		Pagemap struct {
			CSEImage []struct {
				Src string `json:"src"`
			} `json:"cse_image"`
		} `json:"pagemap"`
	} `json:"items"`
}

func (p *GoogleProvider) Search(ctx context.Context, query string, typ Type) ([]Result, error) {
	if p.apiKey == "" || p.cx == "" {
		return nil, ErrMissingCredentials
	}

	reqURL := fmt.Sprintf("%s?key=%s&cx=%s&q=%s&safe=off&num=8",
		p.endpoint, url.QueryEscape(p.apiKey), url.QueryEscape(p.cx), url.QueryEscape(query))
	if typ == TypeImage {
		reqURL += "&searchType=image"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: google (429)", ErrProviderQuotaExhausted)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google status %d", ErrInvalidProviderResponse, resp.StatusCode)
	}

	var g googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}

	results := make([]Result, 0, len(g.Items))
	for _, item := range g.Items {
		if typ == TypeImage {
			// For image search the item link is the image itself; fall back
			// to the embedded thumbnail when it does not look like one.
			img := ""
			if hasImageExtension(item.Link) {
				img = item.Link
			} else if len(item.Pagemap.CSEImage) > 0 {
				img = item.Pagemap.CSEImage[0].Src
			}
			if img != "" {
				results = append(results, Result{Image: img})
			}
			continue
		}

		r := Result{Title: item.Title, Snippet: item.Snippet, Link: item.Link}
		if len(item.Pagemap.CSEImage) > 0 {
			r.Image = item.Pagemap.CSEImage[0].Src
		}
		results = append(results, r)
	}
	return results, nil
}

func hasImageExtension(link string) bool {
	l := strings.ToLower(link)
	return strings.HasSuffix(l, ".jpg") || strings.HasSuffix(l, ".jpeg") || strings.HasSuffix(l, ".png")
}
