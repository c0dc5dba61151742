package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id UUID PRIMARY KEY,
		task TEXT NOT NULL,
		network TEXT NOT NULL DEFAULT '',
		args JSONB NOT NULL DEFAULT '[]',
		state TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		duration_ms BIGINT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	s.logger.Debug("postgres migrations applied")
	return nil
}

// RecordRun inserts a run, assigning an ID when empty
func (s *PostgresStore) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO runs (id, task, network, args, state, error_kind, error, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Task, run.Network, encodeArgs(run.Args), run.State, run.ErrorKind, run.Error,
		run.StartedAt.UTC(), run.DurationMS)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT id, task, network, args, state, error_kind, error, started_at, duration_ms FROM runs WHERE id = $1`
	run, err := scanPostgresRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListRuns lists runs, newest first
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter, pagination PaginationParams) (*PaginatedResult[Run], error) {
	limit := normalizeLimit(pagination)
	where, args := whereClause(filter, func(n int) string { return fmt.Sprintf("$%d", n) })

	args = append(args, limit+1)
	query := `SELECT id, task, network, args, state, error_kind, error, started_at, duration_ms FROM runs` +
		where + fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	hasMore := len(runs) > limit
	if hasMore {
		runs = runs[:limit]
	}

	return &PaginatedResult[Run]{Data: runs, HasMore: hasMore}, rows.Err()
}

func scanPostgresRun(row rowScanner) (*Run, error) {
	var run Run
	var rawArgs []byte
	if err := row.Scan(&run.ID, &run.Task, &run.Network, &rawArgs, &run.State, &run.ErrorKind, &run.Error, &run.StartedAt, &run.DurationMS); err != nil {
		return nil, err
	}
	run.Args = decodeArgs(string(rawArgs))
	return &run, nil
}
