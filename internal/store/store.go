// Package store persists assembled reports and batch run history.
package store

import (
	"context"
	"time"

	"EquitySheet/internal/model"
)

// BatchFailure records one security that could not be built.
type BatchFailure struct {
	Security string `json:"security"`
	Error    string `json:"error"`
}

// BatchRun summarises one pass over the watchlist.
type BatchRun struct {
	ID         string
	AsOf       time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failures   []BatchFailure
}

// Store caches reports keyed by (security, as-of date, input version) and
// keeps a log of batch runs.
type Store interface {
	GetReport(ctx context.Context, key model.SecurityKey, asOf time.Time, inputVersion string) (*model.PublishedReport, bool, error)
	PutReport(ctx context.Context, key model.SecurityKey, asOf time.Time, inputVersion string, r *model.PublishedReport) error
	RecordBatch(ctx context.Context, run *BatchRun) error
	RecentBatches(ctx context.Context, limit int) ([]BatchRun, error)
	Close() error
}
