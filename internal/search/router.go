package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mediatrack/internal/pkg/hostrpc"
)

// Router dispatches a query to the configured backend, substituting the
// keyless DuckDuckGo provider when a text search would otherwise be
// impossible, and normalizing every outcome to []Result. The router never
// returns an error: provider failures degrade to empty result sets.
//
// Image search has no universal fallback. A provider without image support
// or without credentials yields no image rather than a substituted call;
// placeholders downstream are the accepted degradation.
type Router struct {
	client  *http.Client
	cache   Cache
	invoker hostrpc.Invoker
	log     *zap.Logger

	// endpoint overrides, used by tests
	googleEndpoint string
	serperEndpoint string
	ddgEndpoint    string
	yandexEndpoint string
}

// RouterOption mutates router construction.
type RouterOption func(*Router)

// WithCache installs a result cache in front of the providers.
func WithCache(c Cache) RouterOption {
	return func(r *Router) { r.cache = c }
}

// WithHostInvoker routes every provider request through the host shell
// instead of direct HTTP. Required when running embedded.
func WithHostInvoker(inv hostrpc.Invoker) RouterOption {
	return func(r *Router) { r.invoker = inv }
}

// WithHTTPClient overrides the shared outbound client.
func WithHTTPClient(c *http.Client) RouterOption {
	return func(r *Router) { r.client = c }
}

// WithEndpoints overrides provider endpoints; empty strings keep defaults.
func WithEndpoints(google, serper, ddg, yandex string) RouterOption {
	return func(r *Router) {
		r.googleEndpoint = google
		r.serperEndpoint = serper
		r.ddgEndpoint = ddg
		r.yandexEndpoint = yandex
	}
}

// NewRouter creates a router.
func NewRouter(log *zap.Logger, opts ...RouterOption) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		client: defaultHTTPClient(),
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search runs one query under cfg and returns at most MaxResults normalized
// results. Failures are logged and degrade to an empty slice.
func (r *Router) Search(ctx context.Context, query string, cfg Config, typ Type) []Result {
	cfg = cfg.Clean()
	if typ == "" {
		typ = TypeText
	}

	cacheKey := fmt.Sprintf("p=%s;t=%s;cx=%s;u=%s;q=%s", cfg.Provider, typ, cfg.CX, cfg.User, query)
	if r.cache != nil {
		if payload, ok := r.cache.Get(ctx, cacheKey); ok {
			var cached []Result
			if err := json.Unmarshal([]byte(payload), &cached); err == nil {
				return cached
			}
		}
	}

	var results []Result
	var err error
	if r.invoker != nil {
		results, err = r.hostSearch(ctx, query, cfg, typ)
	} else {
		results, err = r.directSearch(ctx, query, cfg, typ)
	}
	if err != nil {
		r.log.Warn("search degraded to empty results",
			zap.String("provider", string(cfg.Provider)),
			zap.String("type", string(typ)),
			zap.Error(err))
		return nil
	}

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}

	if r.cache != nil && len(results) > 0 {
		if payload, err := json.Marshal(results); err == nil {
			r.cache.Set(ctx, cacheKey, string(payload))
		}
	}
	return results
}

// directSearch selects a provider and applies the substitution policy for
// direct HTTP mode.
func (r *Router) directSearch(ctx context.Context, query string, cfg Config, typ Type) ([]Result, error) {
	prov, ok := r.resolve(cfg, typ)
	if !ok {
		// Image search with nothing to call yields no image, by policy.
		return nil, nil
	}
	return prov.Search(ctx, query, typ)
}

// resolve picks the provider for one call. Text searches always degrade to
// DuckDuckGo when the configured provider cannot be called; image searches
// never substitute.
func (r *Router) resolve(cfg Config, typ Type) (Provider, bool) {
	switch cfg.Provider {
	case ProviderGoogle:
		if cfg.HasCredentials() {
			return NewGoogleProvider(r.client, r.googleEndpoint, cfg.APIKey, cfg.CX), true
		}
	case ProviderSerper:
		if cfg.HasCredentials() {
			return NewSerperProvider(r.client, r.serperEndpoint, cfg.APIKey), true
		}
	case ProviderYandex:
		if typ == TypeImage {
			return nil, false
		}
		if cfg.HasCredentials() {
			return NewYandexProvider(r.client, r.yandexEndpoint, cfg.User, cfg.APIKey), true
		}
	case ProviderDuckDuckGo:
		if typ == TypeImage {
			return nil, false
		}
		return NewDuckDuckGoProvider(r.client, r.ddgEndpoint), true
	}

	if typ == TypeImage {
		return nil, false
	}
	return NewDuckDuckGoProvider(r.client, r.ddgEndpoint), true
}

// hostSearch delegates the whole provider request to the host shell, which
// returns a pre-normalized JSON array as a string.
func (r *Router) hostSearch(ctx context.Context, query string, cfg Config, typ Type) ([]Result, error) {
	args := map[string]interface{}{
		"query": query,
		"config": map[string]interface{}{
			"provider":    string(cfg.Provider),
			"api_key":     cfg.APIKey,
			"cx":          cfg.CX,
			"user":        cfg.User,
			"search_type": string(typ),
		},
	}

	payload, err := r.invoker(ctx, hostrpc.CommandWebSearch, args)
	if err != nil {
		return nil, err
	}

	var results []Result
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderResponse, err)
	}
	return results, nil
}

// ProbeResult is the outcome of a one-query provider self-test.
type ProbeResult struct {
	OK        bool       `json:"ok"`
	Provider  ProviderID `json:"provider"`
	LatencyMS int64      `json:"latency_ms"`
	Count     int        `json:"count"`
	Error     string     `json:"error,omitempty"`
}

// Test fires a single text query against the configured provider without
// any fallback substitution, so a misconfigured key surfaces as a failure
// instead of silently degrading.
func (r *Router) Test(ctx context.Context, cfg Config) ProbeResult {
	cfg = cfg.Clean()
	start := time.Now()

	probe := ProbeResult{Provider: cfg.Provider}
	if !cfg.HasCredentials() {
		probe.LatencyMS = time.Since(start).Milliseconds()
		probe.Error = ErrMissingCredentials.Error()
		return probe
	}

	var prov Provider
	switch cfg.Provider {
	case ProviderGoogle:
		prov = NewGoogleProvider(r.client, r.googleEndpoint, cfg.APIKey, cfg.CX)
	case ProviderSerper:
		prov = NewSerperProvider(r.client, r.serperEndpoint, cfg.APIKey)
	case ProviderYandex:
		prov = NewYandexProvider(r.client, r.yandexEndpoint, cfg.User, cfg.APIKey)
	case ProviderDuckDuckGo:
		prov = NewDuckDuckGoProvider(r.client, r.ddgEndpoint)
	default:
		probe.Error = ErrUnsupportedProvider.Error()
		return probe
	}

	results, err := prov.Search(ctx, "test", TypeText)
	probe.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	probe.OK = true
	probe.Count = len(results)
	return probe
}
