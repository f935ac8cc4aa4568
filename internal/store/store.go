// Package store persists batch runs and their records.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contact-scraper/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	BusinessType string          `json:"business_type,omitempty"`
	Location     string          `json:"location,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// NewRun describes a batch about to start.
type NewRun struct {
	Query        string
	BusinessType string
	Location     string
	MaxResults   int
}

// Store defines the persistence interface for batch runs.
type Store interface {
	CreateRun(ctx context.Context, in NewRun) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, records []model.BusinessRecord) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// ErrInterrupted is the failure recorded for a run whose context was
// cancelled before the batch finished.
var ErrInterrupted = eris.New("run interrupted before completion")

// RecordOutcome marks a run complete with records, or failed when runErr is
// set or ctx was cancelled during the run. The write itself ignores ctx
// cancellation.
func RecordOutcome(ctx context.Context, st Store, runID string, records []model.BusinessRecord, runErr error) error {
	wctx := context.WithoutCancel(ctx)
	switch {
	case runErr != nil:
		return st.FailRun(wctx, runID, runErr.Error())
	case ctx.Err() != nil:
		return st.FailRun(wctx, runID, eris.Wrapf(ErrInterrupted, "%d records kept", len(records)).Error())
	default:
		return st.CompleteRun(wctx, runID, records)
	}
}

const defaultListLimit = 100

func listLimit(f RunFilter) uint64 {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return uint64(f.Limit)
}

func newRun(id string, in NewRun, now time.Time) *model.Run {
	return &model.Run{
		ID:           id,
		Query:        in.Query,
		BusinessType: in.BusinessType,
		Location:     in.Location,
		MaxResults:   in.MaxResults,
		Status:       model.RunStatusRunning,
		CreatedAt:    now,
	}
}
