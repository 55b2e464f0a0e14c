package search

import (
	"context"
	"net/http"
	"time"
)

// Provider executes one query against a single backend and maps the raw
// response into []Result. Providers return errors; translating errors into
// empty result sets is the Router's job.
type Provider interface {
	ID() ProviderID
	Search(ctx context.Context, query string, typ Type) ([]Result, error)
}

// baseProvider carries the shared HTTP client. One tuned client is reused
// across all direct providers.
type baseProvider struct {
	client *http.Client
}

func newBaseProvider(client *http.Client) baseProvider {
	if client == nil {
		client = defaultHTTPClient()
	}
	return baseProvider{client: client}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
