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

const defaultBangumiBaseURL = "https://api.bgm.tv"

// Bangumi looks covers up on bgm.tv, which covers anime, manga and
// east-asian dramas far better than the western sources. A token is
// optional and only raises rate limits.
type Bangumi struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

func NewBangumi(baseURL, token string, client *http.Client, log *zap.Logger) *Bangumi {
	if baseURL == "" {
		baseURL = defaultBangumiBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bangumi{baseURL: baseURL, token: token, client: client, log: log}
}

// PosterByTitle implements MetadataSource. The api key parameter is unused;
// authentication uses the client's own token when one is configured.
func (b *Bangumi) PosterByTitle(ctx context.Context, _ string, title, _ string) (string, error) {
	if title == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/search/subject/%s?responseGroup=large",
		b.baseURL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "mediatrack/1.0")
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bangumi responded %d", resp.StatusCode)
	}

	images := gjson.GetBytes(body, "list.0.images")
	for _, size := range []string{"large", "common", "medium"} {
		if s := images.Get(size).String(); s != "" {
			return s, nil
		}
	}
	return "", nil
}
