// Package storage persists the history of task dispatches.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pendergraft/deployforge/internal/config"
)

// RunStore records and lists task runs
type RunStore interface {
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter, pagination PaginationParams) (*PaginatedResult[Run], error)
}

// Store combines the run store with lifecycle methods.
type Store interface {
	RunStore

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Run is one recorded dispatch.
type Run struct {
	ID         string
	Task       string
	Network    string
	Args       []string
	State      string // "completed" or "failed"
	ErrorKind  string
	Error      string
	StartedAt  time.Time
	DurationMS int64
}

// RunFilter contains filter options for listing runs
type RunFilter struct {
	Task    string
	Network string
	State   string
}

// PaginationParams contains pagination options
type PaginationParams struct {
	Limit int
}

// PaginatedResult contains paginated results
type PaginatedResult[T any] struct {
	Data    []T
	HasMore bool
}

// New creates a new store based on configuration. It returns nil, nil when
// history is disabled.
func New(cfg config.HistoryConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown history storage type: %s", cfg.Type)
	}
}
