// Package service builds, caches and narrates reports on top of the engine.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"EquitySheet/internal/collector"
	"EquitySheet/internal/logger"
	"EquitySheet/internal/model"
	"EquitySheet/internal/narrative"
	"EquitySheet/internal/report"
	"EquitySheet/internal/store"
)

// benchmarkLookback covers the beta window with room for holidays.
const benchmarkLookback = 3

// ReportService wires a provider, the engine, the narrative generator and
// the report store.
type ReportService struct {
	provider    collector.Provider
	benchmark   collector.BenchmarkSource
	store       store.Store
	narrator    narrative.Generator
	engine      report.Config
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

// Option customises a ReportService.
type Option func(*ReportService)

// WithBenchmark sets the source used when a payload carries no benchmark.
func WithBenchmark(b collector.BenchmarkSource) Option {
	return func(s *ReportService) { s.benchmark = b }
}

// WithClock overrides the wall clock used to stamp batch runs.
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

// New creates a ReportService. concurrency bounds BuildAll's fan-out.
func New(p collector.Provider, st store.Store, gen narrative.Generator, engine report.Config, concurrency int, log zerolog.Logger, opts ...Option) *ReportService {
	if concurrency <= 0 {
		concurrency = 1
	}
	s := &ReportService{
		provider:    p,
		store:       st,
		narrator:    gen,
		engine:      engine,
		concurrency: concurrency,
		log:         logger.Component(log, "service"),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AsOfDate truncates t to its calendar date in UTC, the granularity of all
// report inputs.
func AsOfDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Build produces the report for identifier as of asOf, serving it from the
// store when the inputs are unchanged.
func (s *ReportService) Build(ctx context.Context, identifier string, asOf time.Time) (*model.PublishedReport, error) {
	asOf = AsOfDate(asOf)
	key, err := collector.ResolveCode(identifier)
	if err != nil {
		return nil, err
	}
	log := s.log.With().Str("security", key.String()).Str("as_of", asOf.Format("2006-01-02")).Logger()

	payload, err := s.provider.Fetch(ctx, key, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", key, s.provider.Name(), err)
	}
	if len(payload.Benchmark) == 0 && s.benchmark != nil {
		points, err := s.benchmark.FetchBenchmark(ctx, asOf.AddDate(-benchmarkLookback, 0, 0), asOf)
		if err != nil {
			log.Warn().Err(err).Str("source", s.benchmark.Name()).Msg("benchmark unavailable, beta will be null")
		} else {
			withBench := *payload
			withBench.Benchmark = collector.ToDated(points)
			payload = &withBench
		}
	}

	raw, err := collector.Normalize(key, payload)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", key, err)
	}

	version, err := InputVersion(raw, s.engine)
	if err != nil {
		return nil, err
	}
	if cached, ok, err := s.store.GetReport(ctx, key, asOf, version); err != nil {
		log.Warn().Err(err).Msg("report cache read failed")
	} else if ok {
		log.Debug().Str("input_version", version).Msg("report served from cache")
		return cached, nil
	}

	bundle, err := report.Assemble(key, asOf, raw, s.engine)
	if err != nil {
		return nil, err
	}
	published := &model.PublishedReport{
		ReportBundle: bundle,
		Commentary:   s.narrator.Generate(bundle),
	}
	if err := s.store.PutReport(ctx, key, asOf, version, published); err != nil {
		log.Warn().Err(err).Msg("report cache write failed")
	}
	log.Info().
		Str("input_version", version).
		Int("timeliness", bundle.Ranks.Timeliness).
		Int("safety", bundle.Ranks.Safety).
		Int("technical", bundle.Ranks.Technical).
		Msg("report built")
	return published, nil
}

// BatchResult is the outcome of BuildAll. Reports follow the input order
// and omit failed securities.
type BatchResult struct {
	Run     *store.BatchRun
	Reports []*model.PublishedReport
}

// BuildAll builds every identifier concurrently. A failing security is
// recorded in the run and does not stop the others; only cancellation of
// ctx aborts the batch.
func (s *ReportService) BuildAll(ctx context.Context, identifiers []string, asOf time.Time) (*BatchResult, error) {
	asOf = AsOfDate(asOf)
	run := &store.BatchRun{
		ID:        uuid.NewString(),
		AsOf:      asOf,
		StartedAt: s.now(),
		Total:     len(identifiers),
	}
	s.log.Info().Str("batch_id", run.ID).Int("securities", run.Total).Msg("batch started")

	reports := make([]*model.PublishedReport, len(identifiers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range identifiers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.Build(gctx, id, asOf)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.log.Error().Err(err).Str("batch_id", run.ID).Str("identifier", id).Msg("report failed")
				mu.Lock()
				run.Failures = append(run.Failures, store.BatchFailure{Security: id, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s: %w", run.ID, err)
	}

	result := &BatchResult{Run: run}
	for _, r := range reports {
		if r != nil {
			result.Reports = append(result.Reports, r)
		}
	}
	sortFailures(run.Failures, identifiers)
	run.Succeeded = len(result.Reports)
	run.FinishedAt = s.now()

	if err := s.store.RecordBatch(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("batch_id", run.ID).Msg("record batch run failed")
	}
	s.log.Info().
		Str("batch_id", run.ID).
		Int("succeeded", run.Succeeded).
		Int("failed", len(run.Failures)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("batch finished")
	return result, nil
}

// sortFailures restores watchlist order, which concurrent completion loses.
func sortFailures(failures []store.BatchFailure, identifiers []string) {
	pos := make(map[string]int, len(identifiers))
	for i, id := range identifiers {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return pos[failures[i].Security] < pos[failures[j].Security]
	})
}

// InputVersion fingerprints the normalised inputs together with the engine
// configuration, so cached reports are invalidated by either changing.
func InputVersion(raw model.RawInputs, engine report.Config) (string, error) {
	data, err := json.Marshal(struct {
		Raw    model.RawInputs
		Engine report.Config
	}{raw, engine})
	if err != nil {
		return "", fmt.Errorf("fingerprint inputs: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}
