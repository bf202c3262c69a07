package store

import (
	"context"
	"time"

	"EquitySheet/internal/model"
)

// NoopStore is used when SQLite is not configured; it never hits.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) GetReport(context.Context, model.SecurityKey, time.Time, string) (*model.PublishedReport, bool, error) {
	return nil, false, nil
}

func (n *NoopStore) PutReport(context.Context, model.SecurityKey, time.Time, string, *model.PublishedReport) error {
	return nil
}

func (n *NoopStore) RecordBatch(context.Context, *BatchRun) error { return nil }

func (n *NoopStore) RecentBatches(context.Context, int) ([]BatchRun, error) { return nil, nil }

func (n *NoopStore) Close() error { return nil }
