package enrich

import (
	"context"

	"go.uber.org/zap"
)

// MetadataChain tries each source in order and returns the first poster
// found. Source failures are logged and skipped so one flaky backend never
// hides the rest; context cancellation stops the walk.
type MetadataChain struct {
	sources []MetadataSource
	log     *zap.Logger
}

func NewMetadataChain(log *zap.Logger, sources ...MetadataSource) *MetadataChain {
	if log == nil {
		log = zap.NewNop()
	}
	return &MetadataChain{sources: sources, log: log}
}

func (c *MetadataChain) PosterByTitle(ctx context.Context, apiKey, title, year string) (string, error) {
	for _, src := range c.sources {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		poster, err := src.PosterByTitle(ctx, apiKey, title, year)
		if err != nil {
			c.log.Debug("metadata source failed",
				zap.String("title", title),
				zap.Error(err))
			continue
		}
		if poster != "" {
			return poster, nil
		}
	}
	return "", nil
}
