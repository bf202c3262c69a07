package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
	"EquitySheet/internal/service"
	"EquitySheet/internal/store"
)

type fakeBuilder struct {
	mu      sync.Mutex
	asOfs   []time.Time
	block   chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeBuilder) Build(_ context.Context, id string, asOf time.Time) (*model.PublishedReport, error) {
	f.mu.Lock()
	f.asOfs = append(f.asOfs, asOf)
	f.mu.Unlock()
	switch id {
	case "999999":
		return nil, &model.UnresolvableSecurityError{Identifier: id}
	case "000002":
		return nil, &model.InsufficientDataError{Reason: "nothing filed"}
	}
	return &model.PublishedReport{
		ReportBundle: &model.ReportBundle{
			Meta:  model.Meta{Symbol: id + ".SH", Name: null.StringFrom("Test"), AsOf: asOf.Format("2006-01-02")},
			Ranks: model.Ranks{Timeliness: 2, Safety: 3, Technical: 4},
		},
		Commentary: "ok",
	}, nil
}

func (f *fakeBuilder) BuildAll(ctx context.Context, ids []string, asOf time.Time) (*service.BatchResult, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	res := &service.BatchResult{Run: &store.BatchRun{ID: "run-1", AsOf: asOf, Total: len(ids)}}
	for _, id := range ids {
		r, err := f.Build(ctx, id, asOf)
		if err != nil {
			res.Run.Failures = append(res.Run.Failures, store.BatchFailure{Security: id, Error: err.Error()})
			continue
		}
		res.Reports = append(res.Reports, r)
	}
	res.Run.Succeeded = len(res.Reports)
	return res, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeHistory struct {
	runs []store.BatchRun
	err  error
}

func (f fakeHistory) RecentBatches(context.Context, int) ([]store.BatchRun, error) {
	return f.runs, f.err
}

var fixedNow = time.Date(2024, time.June, 28, 15, 30, 0, 0, time.FixedZone("CST", 8*3600))

func newTestScheduler(b Builder, n Sender, h History, watchlist ...string) *Scheduler {
	s := NewScheduler(context.Background(), b, n, h, watchlist, zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&fakeBuilder{}, nil, nil)
	require.NoError(t, s.Register("0 30 16 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)

	err := s.Register("not a cron")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register batch task")
}

func TestRunBatch(t *testing.T) {
	b := &fakeBuilder{}
	n := &fakeSender{}
	s := newTestScheduler(b, n, nil, "600519", "999999")

	res, err := s.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Run.Succeeded)
	require.Len(t, n.sent, 2)
	assert.Contains(t, n.sent[0], "600519.SH")
	assert.Contains(t, n.sent[1], "成功: 1 / 2")
	assert.Equal(t, time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC), b.asOfs[0])
}

func TestRunBatch_ErrorIsReported(t *testing.T) {
	n := &fakeSender{}
	s := newTestScheduler(&fakeBuilder{err: context.Canceled}, n, nil, "600519")
	_, err := s.RunBatch(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "批处理失败")
}

func TestRunBatch_NoOverlap(t *testing.T) {
	b := &fakeBuilder{block: make(chan struct{}), started: make(chan struct{})}
	s := newTestScheduler(b, nil, nil, "600519")

	done := make(chan error, 1)
	go func() {
		_, err := s.RunBatch(context.Background())
		done <- err
	}()
	<-b.started

	_, err := s.RunBatch(context.Background())
	assert.ErrorIs(t, err, ErrBatchRunning)
	assert.Equal(t, "⏳ 批处理正在运行", s.HandleCommand(context.Background(), "/batch"))

	close(b.block)
	require.NoError(t, <-done)
}

func TestHandleCommand(t *testing.T) {
	history := fakeHistory{runs: []store.BatchRun{
		{AsOf: time.Date(2024, time.June, 27, 0, 0, 0, 0, time.UTC), Total: 3, Succeeded: 2},
	}}
	tests := []struct {
		name    string
		command string
		history History
		want    string
	}{
		{"report", "/report 600519", nil, "600519.SH"},
		{"report with spaces", "  /report   600519 ", nil, "600519.SH"},
		{"report without code", "/report", nil, "用法"},
		{"unresolvable", "/report 999999", nil, "无法识别证券代码: 999999"},
		{"insufficient", "/report 000002", nil, "数据不足"},
		{"history", "/history", history, "2024-06-27  2/3 成功"},
		{"empty history", "/history", fakeHistory{}, "暂无批处理记录"},
		{"history failure", "/history", fakeHistory{err: errors.New("db down")}, "读取历史失败"},
		{"no store", "/history", nil, "未配置存储"},
		{"help", "/start", nil, "可用命令"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(&fakeBuilder{}, nil, tt.history)
			assert.Contains(t, s.HandleCommand(context.Background(), tt.command), tt.want)
		})
	}
}

func TestHandleCommand_BatchSendsDigest(t *testing.T) {
	n := &fakeSender{}
	s := newTestScheduler(&fakeBuilder{}, n, nil, "600519")
	assert.Empty(t, s.HandleCommand(context.Background(), "/batch"))
	assert.Len(t, n.sent, 2)
}

func TestDescribeError(t *testing.T) {
	msg := describeError("600519", fmt.Errorf("fetch: %w", errors.New("timeout")))
	assert.Contains(t, msg, "生成报告失败")
	assert.Contains(t, msg, "timeout")
}
