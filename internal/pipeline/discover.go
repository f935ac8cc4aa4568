package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/extract"
	"github.com/sells-group/contact-scraper/internal/maps"
)

// DefaultMaxResults caps how many discovered businesses are researched.
const DefaultMaxResults = 100

// Discover searches businessType in location and returns up to limit business
// names, in payload order. A failed search is the only error; a payload
// without names yields an empty list.
func Discover(ctx context.Context, search maps.Searcher, ex extract.Extractor, businessType, location string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	payload, err := search.Search(ctx, maps.BuildQuery(businessType, location))
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: discover %q in %s", businessType, location)
	}

	names := ex.Names(payload)
	zap.L().Info("pipeline: businesses discovered",
		zap.String("business_type", businessType),
		zap.String("location", location),
		zap.Int("found", len(names)),
		zap.Int("limit", limit),
	)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
