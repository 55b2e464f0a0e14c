package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDuckGoProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "q=dune")
		w.Write([]byte(`{
			"Heading": "Dune",
			"AbstractText": "Dune is a 1965 novel by Frank Herbert.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Dune",
			"RelatedTopics": [
				{"Text": "Dune (2021 film)", "FirstURL": "https://example.com/dune-2021"},
				{"Text": "", "FirstURL": "https://example.com/skipped"},
				{"Text": "Dune Messiah", "FirstURL": "https://example.com/messiah"}
			]
		}`))
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(srv.Client(), srv.URL)
	results, err := p.Search(context.Background(), "dune", TypeText)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Abstract comes first.
	assert.Equal(t, "Dune", results[0].Title)
	assert.Equal(t, "Dune is a 1965 novel by Frank Herbert.", results[0].Snippet)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Dune", results[0].Link)

	// Related topics carry the same text as title and snippet.
	assert.Equal(t, results[1].Title, results[1].Snippet)
	assert.Equal(t, "https://example.com/dune-2021", results[1].Link)
}

func TestDuckDuckGoProvider_NoImageSupport(t *testing.T) {
	p := NewDuckDuckGoProvider(nil, "")
	_, err := p.Search(context.Background(), "dune", TypeImage)
	assert.ErrorIs(t, err, ErrImageSearchUnsupported)
}

func TestGoogleProvider_TextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("key"))
		assert.Equal(t, "cx-1", q.Get("cx"))
		assert.Empty(t, q.Get("searchType"))
		w.Write([]byte(`{"items":[
			{"title":"Dune (2021)","snippet":"Denis Villeneuve film","link":"https://example.com/dune",
			 "pagemap":{"cse_image":[{"src":"https://img.example.com/dune.jpg"}]}},
			{"title":"Dune novel","snippet":"Frank Herbert","link":"https://example.com/novel"}
		]}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider(srv.Client(), srv.URL, "k", "cx-1")
	results, err := p.Search(context.Background(), "dune", TypeText)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://img.example.com/dune.jpg", results[0].Image)
	assert.Empty(t, results[1].Image)
}

func TestGoogleProvider_ImageSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))
		w.Write([]byte(`{"items":[
			{"title":"poster","link":"https://img.example.com/poster.jpg"},
			{"title":"page","link":"https://example.com/page",
			 "pagemap":{"cse_image":[{"src":"https://img.example.com/thumb.png"}]}}
		]}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider(srv.Client(), srv.URL, "k", "cx-1")
	results, err := p.Search(context.Background(), "dune poster", TypeImage)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Image search yields image URLs only.
	for _, r := range results {
		assert.Empty(t, r.Title)
		assert.Empty(t, r.Link)
		assert.NotEmpty(t, r.Image)
	}
	assert.Equal(t, "https://img.example.com/poster.jpg", results[0].Image)
	assert.Equal(t, "https://img.example.com/thumb.png", results[1].Image)
}

func TestGoogleProvider_MissingCredentials(t *testing.T) {
	p := NewGoogleProvider(nil, "", "", "")
	_, err := p.Search(context.Background(), "dune", TypeText)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSerperProvider_TextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		w.Write([]byte(`{"organic":[{"title":"Dune","snippet":"film","link":"https://example.com/dune"}]}`))
	}))
	defer srv.Close()

	p := NewSerperProvider(srv.Client(), srv.URL, "secret")
	results, err := p.Search(context.Background(), "dune", TypeText)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Image)
}

func TestSerperProvider_ImageSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images", r.URL.Path)
		w.Write([]byte(`{"images":[{"imageUrl":"https://img.example.com/a.jpg"},{"imageUrl":""}]}`))
	}))
	defer srv.Close()

	p := NewSerperProvider(srv.Client(), srv.URL, "secret")
	results, err := p.Search(context.Background(), "dune poster", TypeImage)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://img.example.com/a.jpg", results[0].Image)
}

func TestSerperProvider_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewSerperProvider(srv.Client(), srv.URL, "bad-key")
	_, err := p.Search(context.Background(), "dune", TypeText)
	assert.ErrorIs(t, err, ErrProviderKeyInvalid)
}

func TestYandexProvider_ParsesXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "acct", q.Get("user"))
		assert.Equal(t, "k", q.Get("key"))
		w.Write([]byte(`<?xml version="1.0"?>
<yandexsearch>
  <response>
    <results><grouping><group>
      <doc>
        <url>https://example.com/dune</url>
        <title>Dune (2021)</title>
        <passages><passage>Science fiction film.</passage><passage>Second passage.</passage></passages>
      </doc>
      <doc>
        <url>https://example.com/messiah</url>
        <title>Dune Messiah</title>
      </doc>
    </group></grouping></results>
  </response>
</yandexsearch>`))
	}))
	defer srv.Close()

	p := NewYandexProvider(srv.Client(), srv.URL, "acct", "k")
	results, err := p.Search(context.Background(), "dune", TypeText)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Dune (2021)", results[0].Title)
	assert.Equal(t, "https://example.com/dune", results[0].Link)
	assert.Equal(t, "Science fiction film.", results[0].Snippet)
	assert.Empty(t, results[1].Snippet)
}

func TestYandexProvider_ImageUnsupported(t *testing.T) {
	p := NewYandexProvider(nil, "", "acct", "k")
	_, err := p.Search(context.Background(), "dune", TypeImage)
	assert.ErrorIs(t, err, ErrImageSearchUnsupported)
}

func TestConfig_Clean(t *testing.T) {
	cfg := Config{Provider: ProviderGoogle, APIKey: " undefined ", CX: "null", User: " real "}.Clean()
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.CX)
	assert.Equal(t, "real", cfg.User)
}

func TestConfig_HasCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"duckduckgo needs nothing", Config{Provider: ProviderDuckDuckGo}, true},
		{"google complete", Config{Provider: ProviderGoogle, APIKey: "k", CX: "c"}, true},
		{"google without cx", Config{Provider: ProviderGoogle, APIKey: "k"}, false},
		{"serper with key", Config{Provider: ProviderSerper, APIKey: "k"}, true},
		{"serper without key", Config{Provider: ProviderSerper}, false},
		{"yandex complete", Config{Provider: ProviderYandex, APIKey: "k", User: "u"}, true},
		{"yandex without user", Config{Provider: ProviderYandex, APIKey: "k"}, false},
		{"unknown provider", Config{Provider: "bing"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.HasCredentials())
		})
	}
}

func TestDuckDuckGoProvider_CapsRelatedTopics(t *testing.T) {
	topics := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		topics = append(topics, `{"Text":"topic","FirstURL":"https://example.com/t"}`)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RelatedTopics":[` + strings.Join(topics, ",") + `]}`))
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(srv.Client(), srv.URL)
	results, err := p.Search(context.Background(), "anything", TypeText)
	require.NoError(t, err)
	assert.Len(t, results, MaxResults)
}
