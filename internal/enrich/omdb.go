package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const defaultOMDbBaseURL = "https://www.omdbapi.com/"

var yearPattern = regexp.MustCompile(`\d{4}`)

// OMDb looks up posters in the Open Movie Database by title and year. It
// is the secondary, faster-budget source the poster pipeline races after
// the image search comes up empty.
type OMDb struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewOMDb creates a client. Empty baseURL and nil client pick defaults;
// tests point baseURL at a local server.
func NewOMDb(baseURL string, client *http.Client, log *zap.Logger) *OMDb {
	if baseURL == "" {
		baseURL = defaultOMDbBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OMDb{baseURL: baseURL, client: client, log: log}
}

// PosterByTitle returns the poster URL for a title, or "" when OMDb has no
// usable poster. Missing credentials short-circuit to "" without a call.
func (o *OMDb) PosterByTitle(ctx context.Context, apiKey, title, year string) (string, error) {
	if apiKey == "" || title == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s?t=%s&y=%s&apikey=%s",
		o.baseURL,
		url.QueryEscape(title),
		url.QueryEscape(year),
		url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("omdb responded %d", resp.StatusCode)
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("Response").String() != "True" {
		o.log.Debug("omdb has no match",
			zap.String("title", title),
			zap.String("error", parsed.Get("Error").String()))
		return "", nil
	}
	poster := parsed.Get("Poster").String()
	if poster == "" || poster == "N/A" {
		return "", nil
	}
	return poster, nil
}

// releaseYear pulls the first 4-digit year out of a free-form release date
// ("2021", "2021-10-22", "October 2021" all work).
func releaseYear(releaseDate string) string {
	return yearPattern.FindString(releaseDate)
}
