package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"EquitySheet/internal/logger"
	"EquitySheet/internal/model"
)

const dateLayout = "2006-01-02"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists reports and batch runs to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets report readers run while a batch writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: logger.Component(log, "store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			security      TEXT NOT NULL,
			as_of         TEXT NOT NULL,
			input_version TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			timeliness    INTEGER,
			safety        INTEGER,
			technical     INTEGER,
			pe_ttm        REAL,
			body          TEXT NOT NULL,
			PRIMARY KEY (security, as_of, input_version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_as_of ON reports(as_of)`,

		`CREATE TABLE IF NOT EXISTS batch_runs (
			id          TEXT PRIMARY KEY,
			as_of       TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total       INTEGER,
			succeeded   INTEGER,
			failures    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_started ON batch_runs(started_at)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, key model.SecurityKey, asOf time.Time, inputVersion string) (*model.PublishedReport, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE security = ? AND as_of = ? AND input_version = ?`,
		key.String(), asOf.Format(dateLayout), inputVersion,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query report: %w", err)
	}

	var r model.PublishedReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, false, fmt.Errorf("decode report %s: %w", key, err)
	}
	return &r, true, nil
}

func (s *SQLiteStore) PutReport(ctx context.Context, key model.SecurityKey, asOf time.Time, inputVersion string, r *model.PublishedReport) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO reports
		(security, as_of, input_version, created_at, timeliness, safety, technical, pe_ttm, body)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		key.String(), asOf.Format(dateLayout), inputVersion, time.Now().Unix(),
		r.Ranks.Timeliness, r.Ranks.Safety, r.Ranks.Technical, r.TopMetrics.PETTM,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) RecordBatch(ctx context.Context, run *BatchRun) error {
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO batch_runs
		(id, as_of, started_at, finished_at, total, succeeded, failures)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.AsOf.Format(dateLayout), run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Total, run.Succeeded, string(failures),
	)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentBatches(ctx context.Context, limit int) ([]BatchRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, as_of, started_at, finished_at, total, succeeded, failures
		FROM batch_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batch runs: %w", err)
	}
	defer rows.Close()

	var out []BatchRun
	for rows.Next() {
		var (
			run               BatchRun
			asOf, failures    string
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &asOf, &started, &finished, &run.Total, &run.Succeeded, &failures); err != nil {
			return nil, fmt.Errorf("scan batch run: %w", err)
		}
		if run.AsOf, err = time.Parse(dateLayout, asOf); err != nil {
			return nil, fmt.Errorf("parse batch as_of: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
			return nil, fmt.Errorf("decode failures: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
