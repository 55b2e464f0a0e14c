package service

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediatrack/internal/auth/middleware"
	colbiz "mediatrack/internal/collection/biz"
	"mediatrack/internal/conf"
	"mediatrack/internal/enrich"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/response"
	"mediatrack/internal/pkg/sse"
	"mediatrack/internal/search"
)

// EnrichService exposes the enrichment pipeline over HTTP: query search,
// trending, collection update checks and a provider self-test.
type EnrichService struct {
	pipeline   *enrich.Service
	router     *search.Router
	collection *colbiz.CollectionUseCase
	cfg        *conf.Config
	log        *logger.Logger
}

func NewEnrichService(
	pipeline *enrich.Service,
	router *search.Router,
	collection *colbiz.CollectionUseCase,
	cfg *conf.Config,
	log *logger.Logger,
) *EnrichService {
	return &EnrichService{
		pipeline:   pipeline,
		router:     router,
		collection: collection,
		cfg:        cfg,
		log:        log,
	}
}

// snapshot freezes the settings one call runs under.
func (s *EnrichService) snapshot(forceSearch bool) enrich.Snapshot {
	return enrich.Snapshot{
		AI:             s.cfg.AI.Config.Resolve(),
		Search:         s.cfg.SearchSettings(),
		SearchEnabled:  s.cfg.Search.Enabled,
		ForceSearch:    forceSearch,
		OMDbAPIKey:     s.cfg.Enrich.OMDbAPIKey,
		SystemPrompt:   s.cfg.Enrich.SystemPrompt,
		TrendingPrompt: s.cfg.Enrich.TrendingPrompt,
		UpdatePrompt:   s.cfg.Enrich.UpdatePrompt,
	}
}

type searchRequest struct {
	Query       string `json:"query" binding:"required"`
	ForceSearch bool   `json:"forceSearch"`
}

func (s *EnrichService) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	records, err := s.pipeline.Search(c.Request.Context(), s.snapshot(req.ForceSearch), req.Query)
	if err != nil {
		s.log.Error("enrichment search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		response.Internal(c, "search failed")
		return
	}
	if records == nil {
		records = []enrich.MediaRecord{}
	}
	response.Success(c, gin.H{"items": records})
}

// SearchStream runs the resolve-then-patch flow over SSE: an "items" event
// with placeholder posters first, one "poster" event per resolved image,
// then "done".
func (s *EnrichService) SearchStream(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.BadRequest(c, "query parameter is required")
		return
	}
	force := c.Query("force_search") == "true"
	s.stream(c, func(patch func(id, posterURL string)) ([]enrich.MediaRecord, <-chan struct{}, error) {
		return s.pipeline.SearchDeferred(c.Request.Context(), s.snapshot(force), query, patch)
	})
}

func (s *EnrichService) Trending(c *gin.Context) {
	records, err := s.pipeline.Trending(c.Request.Context(), s.snapshot(false))
	if err != nil {
		s.log.Error("trending refresh failed", zap.Error(err))
		response.Internal(c, "trending refresh failed")
		return
	}
	if records == nil {
		records = []enrich.MediaRecord{}
	}
	response.Success(c, gin.H{"items": records})
}

func (s *EnrichService) TrendingStream(c *gin.Context) {
	s.stream(c, func(patch func(id, posterURL string)) ([]enrich.MediaRecord, <-chan struct{}, error) {
		return s.pipeline.TrendingDeferred(c.Request.Context(), s.snapshot(false), patch)
	})
}

type posterPatch struct {
	ID        string `json:"id"`
	PosterURL string `json:"posterUrl"`
}

func (s *EnrichService) stream(c *gin.Context, run func(patch func(id, posterURL string)) ([]enrich.MediaRecord, <-chan struct{}, error)) {
	writer, err := sse.NewWriter(c)
	if err != nil {
		response.Internal(c, err.Error())
		return
	}

	// Once the handler returns nothing drains patches, so the callback
	// must never block a shared pool worker past that point.
	patches := make(chan posterPatch, 32)
	stopped := make(chan struct{})
	defer close(stopped)
	records, done, err := run(func(id, posterURL string) {
		select {
		case patches <- posterPatch{ID: id, PosterURL: posterURL}:
		case <-stopped:
		}
	})
	if err != nil {
		s.log.Error("enrichment stream failed", zap.Error(err))
		_ = writer.Send(sse.Event{Name: "error", Data: gin.H{"message": "enrichment failed"}})
		return
	}
	if records == nil {
		records = []enrich.MediaRecord{}
	}

	if err := writer.Send(sse.Event{Name: "items", Data: records}); err != nil {
		return
	}
	for {
		select {
		case patch := <-patches:
			if err := writer.Send(sse.Event{Name: "poster", Data: patch}); err != nil {
				return
			}
		case <-done:
			// Drain patches that raced with completion.
			for {
				select {
				case patch := <-patches:
					if err := writer.Send(sse.Event{Name: "poster", Data: patch}); err != nil {
						return
					}
				default:
					_ = writer.Send(sse.Event{Name: "done", Data: gin.H{}})
					return
				}
			}
		case <-writer.Closed():
			return
		}
	}
}

// CheckUpdates refreshes latestUpdateInfo for the caller's ongoing items
// and persists anything that changed.
func (s *EnrichService) CheckUpdates(c *gin.Context) {
	ctx := c.Request.Context()
	username := middleware.Username(c)

	items, err := s.collection.List(ctx, username)
	if err != nil {
		s.log.Error("failed to load collection for update check", zap.Error(err))
		response.Internal(c, "failed to load collection")
		return
	}

	records := make([]enrich.MediaRecord, len(items))
	for i, item := range items {
		records[i] = item.MediaRecord
	}

	updates, err := s.pipeline.CheckUpdates(ctx, s.snapshot(false), records)
	if err != nil {
		s.log.Error("update check failed", zap.Error(err))
		response.Internal(c, "update check failed")
		return
	}
	if updates == nil {
		updates = []enrich.Update{}
	}

	if err := s.collection.ApplyUpdates(ctx, username, updates); err != nil {
		s.log.Error("failed to persist updates", zap.Error(err))
		response.Internal(c, "failed to persist updates")
		return
	}
	response.Success(c, gin.H{"updates": updates})
}

// TestProvider probes the configured search provider without fallback so
// users can verify their credentials.
func (s *EnrichService) TestProvider(c *gin.Context) {
	probe := s.router.Test(c.Request.Context(), s.cfg.SearchSettings())
	response.Success(c, probe)
}

func (s *EnrichService) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/enrich")
	{
		group.POST("/search", s.Search)
		group.GET("/search/stream", s.SearchStream)
		group.GET("/trending", s.Trending)
		group.GET("/trending/stream", s.TrendingStream)
		group.POST("/check-updates", s.CheckUpdates)
		group.GET("/providers/test", s.TestProvider)
	}
}
