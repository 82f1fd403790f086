package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/store"
	"github.com/aussiebroadwan/geohop/pkg/idx"
	_ "modernc.org/sqlite"
)

var _ store.History = (*Store)(nil)

type Store struct {
	db  *sql.DB
	dsn string
}

// Open opens the history database at path with the pragmas the CLI wants.
func Open(path string) (*Store, error) {
	return NewStore(fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) SaveRun(ctx context.Context, run *store.BenchmarkRun) error {
	if run.ID == "" {
		id, err := idx.New()
		if err != nil {
			return err
		}
		run.ID = id.String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO benchmark_runs (
    id, region, started_at, iterations, successes, success_rate,
    avg_connect_ns, avg_request_ns, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Region,
			run.StartedAt.UTC(),
			run.Iterations,
			run.Successes,
			run.SuccessRate,
			int64(run.AvgConnect),
			int64(run.AvgRequest),
			run.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert benchmark run: %w", err)
		}

		for _, it := range run.Results {
			_, err := tx.ExecContext(ctx, `
INSERT INTO benchmark_iterations (run_id, n, connect_ns, request_ns, error)
VALUES (?, ?, ?, ?, ?)`,
				run.ID, it.N, int64(it.Connect), int64(it.Request), mapStringNull(it.Error),
			)
			if err != nil {
				return fmt.Errorf("insert benchmark iteration %d: %w", it.N, err)
			}
		}
		return nil
	})
}

const selectRun = `
SELECT id, region, started_at, iterations, successes, success_rate,
       avg_connect_ns, avg_request_ns, created_at
FROM benchmark_runs`

func (s *Store) GetRun(ctx context.Context, id string) (store.BenchmarkRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if err != nil {
		return store.BenchmarkRun{}, mapNotFound(err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT n, connect_ns, request_ns, error
FROM benchmark_iterations
WHERE run_id = ?
ORDER BY n`, id)
	if err != nil {
		return store.BenchmarkRun{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it               store.IterationRecord
			connect, request int64
			errText          sql.NullString
		)
		if err := rows.Scan(&it.N, &connect, &request, &errText); err != nil {
			return store.BenchmarkRun{}, err
		}
		it.Connect = time.Duration(connect)
		it.Request = time.Duration(request)
		it.Error = mapNullString(errText)
		run.Results = append(run.Results, it)
	}
	return run, rows.Err()
}

func (s *Store) ListRuns(ctx context.Context, region string, limit int) ([]store.BenchmarkRun, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.db.QueryContext(ctx, selectRun+`
WHERE (? = '' OR region = ?)
ORDER BY started_at DESC, id DESC
LIMIT ?`, region, region, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.BenchmarkRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.BenchmarkRun, error) {
	var (
		run              store.BenchmarkRun
		connect, request int64
	)
	err := row.Scan(
		&run.ID,
		&run.Region,
		&run.StartedAt,
		&run.Iterations,
		&run.Successes,
		&run.SuccessRate,
		&connect,
		&request,
		&run.CreatedAt,
	)
	if err != nil {
		return store.BenchmarkRun{}, err
	}
	run.AvgConnect = time.Duration(connect)
	run.AvgRequest = time.Duration(request)
	return run, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
