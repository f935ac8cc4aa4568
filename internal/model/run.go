package model

import "time"

// RunStatus represents the lifecycle state of a batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one batch scrape as recorded by the store.
type Run struct {
	ID           string           `json:"id"`
	Query        string           `json:"query"`
	BusinessType string           `json:"business_type"`
	Location     string           `json:"location"`
	MaxResults   int              `json:"max_results"`
	Status       RunStatus        `json:"status"`
	TotalResults int              `json:"total_results"`
	Error        string           `json:"error,omitempty"`
	Records      []BusinessRecord `json:"records,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}
