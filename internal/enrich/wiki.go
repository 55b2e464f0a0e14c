package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const defaultWikipediaBaseURL = "https://en.wikipedia.org/w/api.php"

// Wikipedia resolves covers through the MediaWiki pageimages API, which
// serves most well-known titles without any credentials.
type Wikipedia struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewWikipedia creates a client. Empty baseURL and nil client pick
// defaults; tests point baseURL at a local server.
func NewWikipedia(baseURL string, client *http.Client, log *zap.Logger) *Wikipedia {
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Wikipedia{baseURL: baseURL, client: client, log: log}
}

// PosterByTitle implements MetadataSource. The api key is unused here.
// The full-size page image is preferred over the thumbnail.
func (w *Wikipedia) PosterByTitle(ctx context.Context, _ string, title, _ string) (string, error) {
	if title == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf(
		"%s?action=query&prop=pageimages&piprop=thumbnail%%7Coriginal&pithumbsize=1024&format=json&titles=%s",
		w.baseURL, url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia responded %d", resp.StatusCode)
	}

	var poster string
	gjson.GetBytes(body, "query.pages").ForEach(func(_, page gjson.Result) bool {
		if s := page.Get("original.source").String(); s != "" {
			poster = s
			return false
		}
		if s := page.Get("thumbnail.source").String(); s != "" {
			poster = s
			return false
		}
		return true
	})
	return poster, nil
}
