package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contact-scraper/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	query         TEXT NOT NULL,
	business_type TEXT NOT NULL,
	location      TEXT NOT NULL,
	max_results   INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'running',
	total_results INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	records       TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, in NewRun) (*model.Run, error) {
	run := newRun(uuid.New().String(), in, time.Now().UTC())

	query, args, err := s.sb.Insert("runs").
		Columns("id", "query", "business_type", "location", "max_results", "status", "created_at").
		Values(run.ID, run.Query, run.BusinessType, run.Location, run.MaxResults, string(run.Status), run.CreatedAt).
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build insert run")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, records []model.BusinessRecord) error {
	if records == nil {
		records = []model.BusinessRecord{}
	}
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal records")
	}
	return s.finish(ctx, runID, map[string]any{
		"status":        string(model.RunStatusComplete),
		"total_results": len(records),
		"records":       string(recordsJSON),
	})
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	return s.finish(ctx, runID, map[string]any{
		"status": string(model.RunStatusFailed),
		"error":  reason,
	})
}

func (s *SQLiteStore) finish(ctx context.Context, runID string, set map[string]any) error {
	set["completed_at"] = time.Now().UTC()
	query, args, err := s.sb.Update("runs").SetMap(set).Where(sq.Eq{"id": runID}).ToSql()
	if err != nil {
		return eris.Wrap(err, "sqlite: build update run")
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

var runColumns = []string{
	"id", "query", "business_type", "location", "max_results", "status",
	"total_results", "error", "records", "created_at", "completed_at",
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	query, args, err := s.sb.Select(runColumns...).From("runs").Where(sq.Eq{"id": runID}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build get run")
	}
	run, err := scanSQLiteRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query, args, err := applyFilter(s.sb.Select(runColumns...).From("runs"), filter).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list runs")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// applyFilter adds the filter's predicates, newest-first ordering and paging.
func applyFilter(b sq.SelectBuilder, f RunFilter) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.BusinessType != "" {
		b = b.Where(sq.Eq{"business_type": f.BusinessType})
	}
	if f.Location != "" {
		b = b.Where(sq.Eq{"location": f.Location})
	}
	b = b.OrderBy("created_at DESC").Limit(listLimit(f))
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	return b
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*model.Run, error) {
	var (
		r           model.Run
		status      string
		recordsJSON sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Query, &r.BusinessType, &r.Location, &r.MaxResults, &status,
		&r.TotalResults, &r.Error, &recordsJSON, &r.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	if recordsJSON.Valid && recordsJSON.String != "" {
		if err := json.Unmarshal([]byte(recordsJSON.String), &r.Records); err != nil {
			return nil, eris.Wrap(err, "unmarshal records")
		}
	}
	return &r, nil
}
