package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/extract"
	"github.com/sells-group/contact-scraper/internal/maps"
	"github.com/sells-group/contact-scraper/internal/model"
)

// Scraper runs discovery followed by a Batch.
type Scraper struct {
	search maps.Searcher
	ex     extract.Extractor
	batch  *Batch
	now    func() time.Time
}

// NewScraper wires a Scraper.
func NewScraper(search maps.Searcher, ex extract.Extractor, batch *Batch) *Scraper {
	return &Scraper{search: search, ex: ex, batch: batch, now: time.Now}
}

// Scrape discovers up to limit businesses of businessType in location and
// enriches them. It fails only when discovery fails.
func (s *Scraper) Scrape(ctx context.Context, businessType, location string, limit int) (model.ResultFile, error) {
	names, err := Discover(ctx, s.search, s.ex, businessType, location, limit)
	if err != nil {
		return model.ResultFile{}, err
	}

	var records []model.BusinessRecord
	if len(names) == 0 {
		zap.L().Warn("pipeline: no businesses found",
			zap.String("business_type", businessType),
			zap.String("location", location),
		)
	} else {
		records = s.batch.Run(ctx, names, location)
	}
	return model.NewResultFile(businessType, location, records, s.now()), nil
}
