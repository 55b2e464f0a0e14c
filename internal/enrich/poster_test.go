package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediatrack/internal/search"
)

type blockingSearcher struct {
	mu      sync.Mutex
	calls   int
	results []search.Result
	block   bool
}

func (f *blockingSearcher) Search(ctx context.Context, _ string, _ search.Config, _ search.Type) []search.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.results
}

func (f *blockingSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMetadata struct {
	poster string
	err    error
	calls  int
}

func (f *fakeMetadata) PosterByTitle(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.poster, f.err
}

func newTestResolver(t *testing.T, searcher Searcher, metadata MetadataSource, opts ...ResolverOption) *Resolver {
	t.Helper()
	r, err := NewResolver(searcher, metadata, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	// Production budgets are seconds; tests shrink them.
	r.searchBudget = 50 * time.Millisecond
	r.metadataBudget = 25 * time.Millisecond
	r.fallbackBudget = 25 * time.Millisecond
	return r
}

func TestResolve_SearchImageWins(t *testing.T) {
	searcher := &blockingSearcher{results: []search.Result{{Image: "https://img.example.com/dune.jpg"}}}
	metadata := &fakeMetadata{poster: "https://omdb.example.com/dune.jpg"}
	r := newTestResolver(t, searcher, metadata)

	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Dune", Type: TypeMovie})
	assert.Equal(t, "https://img.example.com/dune.jpg", got)
	assert.Zero(t, metadata.calls, "metadata lookup only runs when search finds nothing")
}

func TestResolve_HungSearchFallsThroughWithinBudget(t *testing.T) {
	searcher := &blockingSearcher{block: true}
	metadata := &fakeMetadata{poster: "https://omdb.example.com/dune.jpg"}
	r := newTestResolver(t, searcher, metadata)

	start := time.Now()
	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Dune", Type: TypeMovie})
	elapsed := time.Since(start)

	assert.Equal(t, "https://omdb.example.com/dune.jpg", got)
	assert.Less(t, elapsed, time.Second, "a hung search must not block past its budget")
}

func TestResolve_PlaceholderWhenBothEmpty(t *testing.T) {
	r := newTestResolver(t, &blockingSearcher{}, &fakeMetadata{err: errors.New("down")})

	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Nothing", Type: TypeBook})
	assert.Equal(t, TypeBook.PlaceholderURL(), got)
}

func TestResolve_ExistingPosterKept(t *testing.T) {
	searcher := &blockingSearcher{}
	r := newTestResolver(t, searcher, &fakeMetadata{})

	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{
		Title:     "Dune",
		PosterURL: "https://cdn.example.com/have.jpg",
	})
	assert.Equal(t, "https://cdn.example.com/have.jpg", got)
	assert.Zero(t, searcher.callCount())
}

func TestResolve_CachesByNormalizedTitle(t *testing.T) {
	searcher := &blockingSearcher{results: []search.Result{{Image: "https://img.example.com/a.jpg"}}}
	r := newTestResolver(t, searcher, &fakeMetadata{})

	first := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Dune"})
	second := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "  DUNE "})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, searcher.callCount())
}

func TestResolve_FallbackSourceAfterPrimaryMisses(t *testing.T) {
	searcher := &blockingSearcher{}
	primary := &fakeMetadata{}
	fallback := &fakeMetadata{poster: "https://covers.example.com/dune.jpg"}
	r := newTestResolver(t, searcher, primary, WithFallbackMetadata(fallback))

	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Dune", Type: TypeMovie})
	assert.Equal(t, "https://covers.example.com/dune.jpg", got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestResolve_FallbackSkippedWhenPrimaryHits(t *testing.T) {
	searcher := &blockingSearcher{}
	primary := &fakeMetadata{poster: "https://omdb.example.com/dune.jpg"}
	fallback := &fakeMetadata{poster: "https://covers.example.com/dune.jpg"}
	r := newTestResolver(t, searcher, primary, WithFallbackMetadata(fallback))

	got := r.Resolve(context.Background(), Snapshot{}, MediaRecord{Title: "Dune", Type: TypeMovie})
	assert.Equal(t, "https://omdb.example.com/dune.jpg", got)
	assert.Zero(t, fallback.calls)
}

func TestResolveBatch_FillsEveryRecord(t *testing.T) {
	searcher := &blockingSearcher{results: []search.Result{{Image: "https://img.example.com/x.jpg"}}}
	r := newTestResolver(t, searcher, &fakeMetadata{})

	recs := []MediaRecord{
		{Title: "A", Type: TypeMovie},
		{Title: "B", Type: TypeBook},
		{Title: "C", Type: TypeMusic},
	}
	out := r.ResolveBatch(context.Background(), Snapshot{}, recs)
	require.Len(t, out, 3)
	for _, rec := range out {
		assert.Equal(t, "https://img.example.com/x.jpg", rec.PosterURL)
	}
}

func TestResolveAsync_PlaceholdersFirstThenPatch(t *testing.T) {
	searcher := &blockingSearcher{results: []search.Result{{Image: "https://img.example.com/real.jpg"}}}
	r := newTestResolver(t, searcher, &fakeMetadata{})

	patched := make(chan string, 1)
	recs := []MediaRecord{{ID: "id-1", Title: "Dune", Type: TypeMovie}}
	out, done := r.ResolveAsync(Snapshot{}, recs, func(id, posterURL string) {
		assert.Equal(t, "id-1", id)
		patched <- posterURL
	})

	require.Len(t, out, 1)
	assert.Equal(t, TypeMovie.PlaceholderURL(), out[0].PosterURL, "caller gets a placeholder immediately")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async resolution never finished")
	}
	select {
	case url := <-patched:
		assert.Equal(t, "https://img.example.com/real.jpg", url)
	default:
		t.Fatal("patch callback never fired")
	}
}

func TestResolveAsync_NoPatchWhenLookupsComeUpEmpty(t *testing.T) {
	r := newTestResolver(t, &blockingSearcher{}, &fakeMetadata{})

	var patches int32
	recs := []MediaRecord{{ID: "id-1", Title: "Obscure", Type: TypeBook}}
	out, done := r.ResolveAsync(Snapshot{}, recs, func(id, posterURL string) {
		atomic.AddInt32(&patches, 1)
	})

	require.Len(t, out, 1)
	assert.Equal(t, TypeBook.PlaceholderURL(), out[0].PosterURL)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async resolution never finished")
	}
	assert.Zero(t, atomic.LoadInt32(&patches), "placeholder must not be patched in again")
}
