// Package scheduler runs watchlist batches on a cron schedule and answers
// chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"EquitySheet/internal/logger"
	"EquitySheet/internal/model"
	"EquitySheet/internal/notifier"
	"EquitySheet/internal/service"
	"EquitySheet/internal/store"
)

const sendRetries = 3

// ErrBatchRunning is returned when a batch is requested while one is in
// flight.
var ErrBatchRunning = errors.New("batch already running")

// Builder produces reports. *service.ReportService satisfies it.
type Builder interface {
	Build(ctx context.Context, identifier string, asOf time.Time) (*model.PublishedReport, error)
	BuildAll(ctx context.Context, identifiers []string, asOf time.Time) (*service.BatchResult, error)
}

// Sender delivers formatted messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// History lists past batch runs.
type History interface {
	RecentBatches(ctx context.Context, limit int) ([]store.BatchRun, error)
}

// Scheduler manages the batch cron task and the command surface.
type Scheduler struct {
	Cron      *cron.Cron
	Builder   Builder
	Notifier  Sender
	History   History
	Watchlist []string
	Ctx       context.Context

	now     func() time.Time
	running atomic.Bool
	log     zerolog.Logger
}

// NewScheduler creates a new Scheduler. Notifier may be nil, in which case
// digests are only logged.
func NewScheduler(ctx context.Context, b Builder, n Sender, h History, watchlist []string, log zerolog.Logger) *Scheduler {
	l := logger.Component(log, "scheduler")
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{l})),
		Builder:   b,
		Notifier:  n,
		History:   h,
		Watchlist: watchlist,
		Ctx:       ctx,
		now:       time.Now,
		log:       l,
	}
}

// Register adds the watchlist batch on batchCron, a six-field expression with
// seconds.
func (s *Scheduler) Register(batchCron string) error {
	if _, err := s.Cron.AddFunc(batchCron, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) batchTask() {
	if _, err := s.RunBatch(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled batch")
	}
}

// RunBatch builds the whole watchlist as of today and sends the digest and
// the run summary.
func (s *Scheduler) RunBatch(ctx context.Context) (*service.BatchResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBatchRunning
	}
	defer s.running.Store(false)

	asOf := service.AsOfDate(s.now())
	s.log.Info().Time("as_of", asOf).Int("securities", len(s.Watchlist)).Msg("running batch")
	result, err := s.Builder.BuildAll(ctx, s.Watchlist, asOf)
	if err != nil {
		s.trySend(ctx, fmt.Sprintf("❌ 批处理失败: %v", err))
		return nil, err
	}
	if len(result.Reports) > 0 {
		s.trySend(ctx, notifier.FormatDigest(result.Reports, asOf))
	}
	s.trySend(ctx, notifier.FormatBatchSummary(result.Run))
	return result, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	name, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/report", "报告":
		if arg == "" {
			return "用法: /report 600519"
		}
		r, err := s.Builder.Build(ctx, arg, service.AsOfDate(s.now()))
		if err != nil {
			return describeError(arg, err)
		}
		return notifier.FormatReport(r)
	case "/batch", "批处理":
		// The digest and summary are sent by RunBatch itself.
		if _, err := s.RunBatch(ctx); err != nil {
			if errors.Is(err, ErrBatchRunning) {
				return "⏳ 批处理正在运行"
			}
			s.log.Error().Err(err).Msg("manual batch")
		}
		return ""
	case "/history", "历史":
		return s.history(ctx)
	default:
		return "可用命令:\n• /report 代码\n• /batch\n• /history"
	}
}

func (s *Scheduler) history(ctx context.Context) string {
	if s.History == nil {
		return "未配置存储"
	}
	runs, err := s.History.RecentBatches(ctx, 5)
	if err != nil {
		s.log.Error().Err(err).Msg("load batch history")
		return "❌ 读取历史失败"
	}
	if len(runs) == 0 {
		return "暂无批处理记录"
	}
	var b strings.Builder
	b.WriteString("🗂 <b>最近批处理</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s  %d/%d 成功\n", r.AsOf.Format("2006-01-02"), r.Succeeded, r.Total))
	}
	return b.String()
}

func describeError(identifier string, err error) string {
	var unresolvable *model.UnresolvableSecurityError
	switch {
	case errors.As(err, &unresolvable):
		return fmt.Sprintf("❓ 无法识别证券代码: %s", identifier)
	case errors.Is(err, model.ErrInsufficientData):
		return fmt.Sprintf("📭 %s 数据不足，无法生成报告", identifier)
	default:
		return fmt.Sprintf("❌ 生成报告失败: %v", err)
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		s.log.Info().Str("message", text).Msg("notifier disabled")
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
