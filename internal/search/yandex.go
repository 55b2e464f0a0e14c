package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// YandexProvider queries the Yandex XML search API. Text search only; the
// API has no image flavor.
type YandexProvider struct {
	baseProvider
	endpoint string
	user     string
	apiKey   string
}

// NewYandexProvider creates a Yandex provider. An empty endpoint selects the
// public API host.
func NewYandexProvider(client *http.Client, endpoint, user, apiKey string) *YandexProvider {
	if endpoint == "" {
		endpoint = "https://yandex.com/search/xml"
	}
	return &YandexProvider{baseProvider: newBaseProvider(client), endpoint: endpoint, user: user, apiKey: apiKey}
}

func (p *YandexProvider) ID() ProviderID { return ProviderYandex }

func (p *YandexProvider) Search(ctx context.Context, query string, typ Type) ([]Result, error) {
	if typ == TypeImage {
		return nil, ErrImageSearchUnsupported
	}
	if p.user == "" || p.apiKey == "" {
		return nil, ErrMissingCredentials
	}

	reqURL := fmt.Sprintf("%s?user=%s&key=%s&l10n=en&filter=none&query=%s",
		p.endpoint, url.QueryEscape(p.user), url.QueryEscape(p.apiKey), url.QueryEscape(query))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yandex status %d", ErrInvalidProviderResponse, resp.StatusCode)
	}

	results, err := parseYandexXML(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}
	return results, nil
}

// parseYandexXML walks the <doc> elements of a Yandex XML response picking
// out title, url and the first passage of each document.
func parseYandexXML(r io.Reader) ([]Result, error) {
	dec := xml.NewDecoder(r)

	var results []Result
	var cur Result
	var inDoc bool
	var elem string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "doc":
				inDoc = true
				cur = Result{}
			case "title", "url", "passage":
				if inDoc {
					elem = t.Name.Local
				}
			}
		case xml.CharData:
			if !inDoc || elem == "" {
				break
			}
			text := string(t)
			switch elem {
			case "title":
				cur.Title += text
			case "url":
				cur.Link += text
			case "passage":
				if cur.Snippet == "" {
					cur.Snippet = text
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "title", "url", "passage":
				elem = ""
			case "doc":
				cur.Title = strings.TrimSpace(cur.Title)
				cur.Link = strings.TrimSpace(cur.Link)
				cur.Snippet = strings.TrimSpace(cur.Snippet)
				if cur.Title != "" || cur.Link != "" {
					results = append(results, cur)
				}
				inDoc = false
			}
		}
	}
	return results, nil
}
