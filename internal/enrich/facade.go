package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"mediatrack/internal/search"
)

// rawFallbackCap bounds how many records a raw-snippet fallback builds.
const rawFallbackCap = 10

// Service is the public face of the enrichment pipeline: free-text search,
// trending refresh and update checks, each returning enriched records.
type Service struct {
	engine  *Engine
	posters *Resolver
	log     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(engine *Engine, posters *Resolver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		engine:  engine,
		posters: posters,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Search turns a free-text query into enriched records. When the model's
// answer carries no parsable structure, records are built from the raw
// search snippets gathered during the conversation so the user still sees
// something. Posters are resolved before returning.
func (s *Service) Search(ctx context.Context, snap Snapshot, query string) ([]MediaRecord, error) {
	recs, err := s.converse(ctx, snap, query)
	if err != nil {
		return nil, err
	}
	return s.posters.ResolveBatch(ctx, snap, s.finalize(recs)), nil
}

// SearchDeferred is the resolve-then-patch variant: it returns records
// with placeholder posters immediately and reports real posters through
// patch as they resolve. The done channel closes when no more patches will
// arrive.
func (s *Service) SearchDeferred(ctx context.Context, snap Snapshot, query string, patch func(id, posterURL string)) ([]MediaRecord, <-chan struct{}, error) {
	recs, err := s.converse(ctx, snap, query)
	if err != nil {
		return nil, nil, err
	}
	out, done := s.posters.ResolveAsync(snap, s.finalize(recs), patch)
	return out, done, nil
}

// Trending asks the model for currently popular titles.
func (s *Service) Trending(ctx context.Context, snap Snapshot) ([]MediaRecord, error) {
	recs, err := s.converse(ctx, snap, snap.trendingPrompt())
	if err != nil {
		return nil, err
	}
	return s.posters.ResolveBatch(ctx, snap, s.finalize(recs)), nil
}

// TrendingDeferred is Trending with resolve-then-patch posters.
func (s *Service) TrendingDeferred(ctx context.Context, snap Snapshot, patch func(id, posterURL string)) ([]MediaRecord, <-chan struct{}, error) {
	recs, err := s.converse(ctx, snap, snap.trendingPrompt())
	if err != nil {
		return nil, nil, err
	}
	out, done := s.posters.ResolveAsync(snap, s.finalize(recs), patch)
	return out, done, nil
}

func (s *Service) converse(ctx context.Context, snap Snapshot, userMessage string) ([]MediaRecord, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: snap.systemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: userMessage},
	}
	answer, raw, err := s.engine.Run(ctx, snap, messages)
	if err != nil {
		return nil, err
	}

	recs := ExtractRecords(answer)
	if len(recs) == 0 && len(raw) > 0 {
		s.log.Info("no structured answer, falling back to raw snippets",
			zap.Int("snippets", len(raw)))
		recs = recordsFromSearchResults(raw)
	}
	return recs, nil
}

// Update describes the refresh outcome for one ongoing title.
type Update struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	LatestUpdateInfo string `json:"latestUpdateInfo"`
	HasNewUpdate     bool   `json:"hasNewUpdate"`
	CheckedAt        int64  `json:"checkedAt"`
}

// CheckUpdates asks the model for the latest release of every ongoing item
// in one batched conversation and reports which ones changed. Items the
// model did not mention come back with HasNewUpdate false and their old
// info, so callers can still stamp the check time.
func (s *Service) CheckUpdates(ctx context.Context, snap Snapshot, items []MediaRecord) ([]Update, error) {
	ongoing := make([]MediaRecord, 0, len(items))
	for _, item := range items {
		if item.IsOngoing {
			ongoing = append(ongoing, item)
		}
	}
	if len(ongoing) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(snap.updatePrompt())
	sb.WriteString("\n")
	for _, item := range ongoing {
		fmt.Fprintf(&sb, "- %s (%s)\n", item.Title, item.Type)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: snap.systemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: sb.String()},
	}
	answer, _, err := s.engine.Run(ctx, snap, messages)
	if err != nil {
		return nil, err
	}

	latest := map[string]string{}
	for _, rec := range ExtractRecords(answer) {
		if rec.LatestUpdateInfo != "" {
			latest[normalizeTitle(rec.Title)] = rec.LatestUpdateInfo
		}
	}

	checkedAt := s.now().Unix()
	updates := make([]Update, 0, len(ongoing))
	for _, item := range ongoing {
		upd := Update{
			ID:               item.ID,
			Title:            item.Title,
			LatestUpdateInfo: item.LatestUpdateInfo,
			CheckedAt:        checkedAt,
		}
		if info, ok := latest[normalizeTitle(item.Title)]; ok && info != item.LatestUpdateInfo {
			upd.LatestUpdateInfo = info
			upd.HasNewUpdate = true
		}
		updates = append(updates, upd)
	}
	return updates, nil
}

// finalize stamps the pipeline-owned fields on freshly extracted records.
func (s *Service) finalize(recs []MediaRecord) []MediaRecord {
	addedAt := s.now().UTC().Format(time.RFC3339)
	for i := range recs {
		recs[i].ID = s.newID()
		if recs[i].Status == "" {
			recs[i].Status = DefaultStatus
		}
		if recs[i].AddedAt == "" {
			recs[i].AddedAt = addedAt
		}
	}
	return recs
}

// recordsFromSearchResults builds bare records straight from search
// snippets, deduplicated by normalized title and capped.
func recordsFromSearchResults(results []search.Result) []MediaRecord {
	seen := map[string]bool{}
	var recs []MediaRecord
	for _, res := range results {
		title := strings.TrimSpace(res.Title)
		if title == "" {
			continue
		}
		key := normalizeTitle(title)
		if seen[key] {
			continue
		}
		seen[key] = true

		recs = append(recs, MediaRecord{
			Title:       title,
			Type:        TypeOther,
			Description: res.Snippet,
			PosterURL:   res.Image,
		})
		if len(recs) == rawFallbackCap {
			break
		}
	}
	return recs
}
