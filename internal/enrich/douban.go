package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultDoubanMovieBase = "https://movie.douban.com"
	defaultDoubanBookBase  = "https://book.douban.com"
)

// Douban scrapes douban.com for cover art: a subject search first (movies
// before books), then the og:image meta tag on the subject page. Douban has
// no public API, so this stays a best-effort scrape that degrades to "".
type Douban struct {
	movieBase string
	bookBase  string
	client    *http.Client
	log       *zap.Logger
}

func NewDouban(client *http.Client, log *zap.Logger) *Douban {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Douban{
		movieBase: defaultDoubanMovieBase,
		bookBase:  defaultDoubanBookBase,
		client:    client,
		log:       log,
	}
}

// PosterByTitle implements MetadataSource. The api key is unused here.
func (d *Douban) PosterByTitle(ctx context.Context, _ string, title, _ string) (string, error) {
	if title == "" {
		return "", nil
	}

	searches := []string{
		fmt.Sprintf("%s/subject_search?search_text=%s&cat=1002", d.movieBase, url.QueryEscape(title)),
		fmt.Sprintf("%s/subject_search?search_text=%s&cat=1001", d.bookBase, url.QueryEscape(title)),
	}
	var subjectURL string
	for _, endpoint := range searches {
		body, err := d.fetch(ctx, endpoint)
		if err != nil {
			d.log.Debug("douban search failed", zap.String("url", endpoint), zap.Error(err))
			continue
		}
		if subjectURL = d.findSubjectURL(body); subjectURL != "" {
			break
		}
	}
	if subjectURL == "" {
		return "", nil
	}

	page, err := d.fetch(ctx, subjectURL)
	if err != nil {
		return "", err
	}
	img := htmlMetaImage(page)
	if img == "" {
		return "", nil
	}
	return resolveImageURL(subjectURL, img), nil
}

func (d *Douban) fetch(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("douban responded %d", resp.StatusCode)
	}
	return string(body), nil
}

// findSubjectURL picks the first subject link out of a search results page.
func (d *Douban) findSubjectURL(body string) string {
	for _, base := range []string{d.movieBase, d.bookBase} {
		key := base + "/subject/"
		idx := strings.Index(body, key)
		if idx < 0 {
			continue
		}
		tail := body[idx:]
		end := strings.IndexByte(tail, '"')
		if end < 0 {
			end = len(tail)
		}
		return tail[:end]
	}
	return ""
}
