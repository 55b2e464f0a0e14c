package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mediatrack/internal/pkg/timeout"
	"mediatrack/internal/pkg/workerpool"
	"mediatrack/internal/search"
)

const (
	// searchRaceBudget bounds the image-search lookup; metadataRaceBudget
	// bounds the OMDb fallback; fallbackRaceBudget bounds the slower
	// scrape-based sources tried last. A record never waits longer than
	// their sum before it gets a placeholder.
	searchRaceBudget   = 5 * time.Second
	metadataRaceBudget = time.Second
	fallbackRaceBudget = 8 * time.Second

	posterWorkers = 3
)

// MetadataSource is the secondary poster lookup. Satisfied by *OMDb.
type MetadataSource interface {
	PosterByTitle(ctx context.Context, apiKey, title, year string) (string, error)
}

// Resolver finds a poster URL for each record: image search raced against
// a 5s budget, then a metadata lookup raced against 1s, then the type-keyed
// placeholder. Lookups for a whole batch run on a small fixed worker pool
// so outbound image calls stay bounded regardless of batch size.
type Resolver struct {
	router   Searcher
	metadata MetadataSource
	fallback MetadataSource
	pool     *workerpool.Pool
	log      *zap.Logger

	searchBudget   time.Duration
	metadataBudget time.Duration
	fallbackBudget time.Duration

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]string
}

type ResolverOption func(*Resolver)

// WithFallbackMetadata adds a last-resort source tried after both the image
// search and the primary metadata lookup come up empty, under its own
// longer budget.
func WithFallbackMetadata(src MetadataSource) ResolverOption {
	return func(r *Resolver) {
		r.fallback = src
	}
}

func NewResolver(router Searcher, metadata MetadataSource, log *zap.Logger, opts ...ResolverOption) (*Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := workerpool.New(posterWorkers, log.Named("posters"))
	if err != nil {
		return nil, fmt.Errorf("create poster pool: %w", err)
	}
	r := &Resolver{
		router:         router,
		metadata:       metadata,
		pool:           pool,
		log:            log,
		searchBudget:   searchRaceBudget,
		metadataBudget: metadataRaceBudget,
		fallbackBudget: fallbackRaceBudget,
		cache:          map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the worker pool, logging what it processed.
func (r *Resolver) Close() {
	submitted, completed, failed := r.pool.Stats()
	r.log.Info("poster pool shutting down",
		zap.Int("running", r.pool.Running()),
		zap.Int64("submitted", submitted),
		zap.Int64("completed", completed),
		zap.Int64("failed", failed))
	r.pool.Shutdown()
}

// Resolve returns a poster URL for one record. It never returns "": when
// both lookups come up empty the type placeholder is returned. Results are
// cached by normalized title, and concurrent lookups for the same title
// collapse into one.
func (r *Resolver) Resolve(ctx context.Context, snap Snapshot, rec MediaRecord) string {
	if isUsableURL(rec.PosterURL) {
		return rec.PosterURL
	}

	key := normalizeTitle(rec.Title)
	if key == "" {
		return rec.Type.PlaceholderURL()
	}

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached
	}

	found, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.lookup(ctx, snap, rec), nil
	})
	if u, _ := found.(string); u != "" {
		r.mu.Lock()
		r.cache[key] = u
		r.mu.Unlock()
		return u
	}
	return rec.Type.PlaceholderURL()
}

func (r *Resolver) lookup(ctx context.Context, snap Snapshot, rec MediaRecord) string {
	u := timeout.Race(ctx, r.searchBudget, "", func(ctx context.Context) (string, error) {
		return r.searchPoster(ctx, snap, rec)
	})
	if u != "" {
		return u
	}
	u = timeout.Race(ctx, r.metadataBudget, "", func(ctx context.Context) (string, error) {
		return r.metadata.PosterByTitle(ctx, snap.OMDbAPIKey, rec.Title, releaseYear(rec.ReleaseDate))
	})
	if u != "" || r.fallback == nil {
		return u
	}
	return timeout.Race(ctx, r.fallbackBudget, "", func(ctx context.Context) (string, error) {
		return r.fallback.PosterByTitle(ctx, snap.OMDbAPIKey, rec.Title, releaseYear(rec.ReleaseDate))
	})
}

func (r *Resolver) searchPoster(ctx context.Context, snap Snapshot, rec MediaRecord) (string, error) {
	query := fmt.Sprintf("%s %s poster", rec.Title, rec.Type)
	for _, res := range r.router.Search(ctx, query, snap.Search, search.TypeImage) {
		if isUsableURL(res.Image) {
			return res.Image, nil
		}
	}
	return "", nil
}

// ResolveBatch fills PosterURL for every record, blocking until the whole
// batch is done. Work is spread over the shared pool.
func (r *Resolver) ResolveBatch(ctx context.Context, snap Snapshot, recs []MediaRecord) []MediaRecord {
	tasks := make([]func(), 0, len(recs))
	for i := range recs {
		i := i
		tasks = append(tasks, func() {
			recs[i].PosterURL = r.Resolve(ctx, snap, recs[i])
		})
	}
	if err := r.pool.RunBatch(tasks); err != nil {
		r.log.Warn("poster batch did not run, using placeholders", zap.Error(err))
		for i := range recs {
			if recs[i].PosterURL == "" {
				recs[i].PosterURL = recs[i].Type.PlaceholderURL()
			}
		}
	}
	return recs
}

// ResolveAsync stamps placeholders into recs immediately and resolves real
// posters in the background, reporting each improvement through patch.
// Callers return the placeholder-filled list to the user first and patch
// images in as they arrive. The returned channel closes once every pending
// lookup has finished; the background work runs to completion even if the
// caller has since lost interest.
func (r *Resolver) ResolveAsync(snap Snapshot, recs []MediaRecord, patch func(id, posterURL string)) ([]MediaRecord, <-chan struct{}) {
	// Pending copies keep their unresolved PosterURL so the background
	// lookup actually runs; only the returned slice gets the placeholder.
	pending := make([]MediaRecord, 0, len(recs))
	for i := range recs {
		if !isUsableURL(recs[i].PosterURL) {
			pending = append(pending, recs[i])
			recs[i].PosterURL = recs[i].Type.PlaceholderURL()
		}
	}

	var wg sync.WaitGroup
	for _, rec := range pending {
		rec := rec
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			resolved := r.Resolve(context.Background(), snap, rec)
			if resolved != rec.Type.PlaceholderURL() && patch != nil {
				patch(rec.ID, resolved)
			}
		}); err != nil {
			wg.Done()
			r.log.Warn("poster patch task rejected",
				zap.String("title", rec.Title),
				zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return recs, done
}

func isUsableURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
