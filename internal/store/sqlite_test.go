package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
)

var key = model.SecurityKey{Exchange: "SH", Code: "600519"}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reports.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report() *model.PublishedReport {
	return &model.PublishedReport{
		ReportBundle: &model.ReportBundle{
			Meta:       model.Meta{Code: "600519", Exchange: "SH", Symbol: "600519.SH", AsOf: "2024-06-28"},
			Ranks:      model.Ranks{Timeliness: 2, Safety: 1, Technical: 3, Beta: null.FloatFrom(0.9)},
			TopMetrics: model.TopMetrics{PETTM: null.FloatFrom(28.5)},
		},
		Commentary: "sample",
	}
}

func TestSQLiteStore_ReportRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	_, ok, err := s.GetReport(ctx, key, asOf, "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutReport(ctx, key, asOf, "v1", report()))

	got, ok, err := s.GetReport(ctx, key, asOf, "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sample", got.Commentary)
	assert.Equal(t, 2, got.Ranks.Timeliness)
	assert.InDelta(t, 28.5, got.TopMetrics.PETTM.Float64, 1e-12)
	assert.False(t, got.TopMetrics.PB.Valid)

	// a different input version or date is a miss
	_, ok, err = s.GetReport(ctx, key, asOf, "v2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.GetReport(ctx, key, asOf.AddDate(0, 0, 1), "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	// rewriting the same key replaces the row
	updated := report()
	updated.Commentary = "updated"
	require.NoError(t, s.PutReport(ctx, key, asOf, "v1", updated))
	got, _, err = s.GetReport(ctx, key, asOf, "v1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Commentary)
}

func TestSQLiteStore_BatchRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 28, 18, 0, 0, 0, time.UTC)

	first := &BatchRun{
		ID:         uuid.NewString(),
		AsOf:       time.Date(2024, 6, 27, 0, 0, 0, 0, time.UTC),
		StartedAt:  base.Add(-24 * time.Hour),
		FinishedAt: base.Add(-24*time.Hour + time.Minute),
		Total:      3,
		Succeeded:  3,
	}
	second := &BatchRun{
		ID:         uuid.NewString(),
		AsOf:       time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
		Total:      3,
		Succeeded:  2,
		Failures:   []BatchFailure{{Security: "830799.BJ", Error: "insufficient data"}},
	}
	require.NoError(t, s.RecordBatch(ctx, first))
	require.NoError(t, s.RecordBatch(ctx, second))

	runs, err := s.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, second.Failures, runs[0].Failures)
	assert.Nil(t, runs[1].Failures)
	assert.True(t, runs[0].AsOf.Equal(second.AsOf))

	runs, err = s.RecentBatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	assert.Error(t, s.RecordBatch(ctx, first), "duplicate run id")
}

func TestNoopStore(t *testing.T) {
	var s Store = NewNoopStore()
	_, ok, err := s.GetReport(context.Background(), key, time.Now(), "v1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.PutReport(context.Background(), key, time.Now(), "v1", report()))
	assert.NoError(t, s.Close())
}
