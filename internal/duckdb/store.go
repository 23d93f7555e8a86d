// Package duckdb persists the attribution statistics tables and verdict
// history in a DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/tinytelemetry/culprit/internal/duckdb/migrate"
	"github.com/tinytelemetry/culprit/internal/model"
)

const defaultQueryTimeout = 30 * time.Second

// Store manages the DuckDB connection. It is opened once per run and
// closed by the caller on every exit path.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	actors       int
	QueryTimeout time.Duration
}

// Options tunes a Store.
type Options struct {
	QueryTimeout time.Duration
	Actors       int
}

// NewStore opens or creates a DuckDB database and applies migrations.
// An empty dbPath opens an in-memory database.
func NewStore(dbPath string, opts ...Options) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:           db,
		dbPath:       dbPath,
		actors:       model.DefaultActorCount,
		QueryTimeout: defaultQueryTimeout,
	}
	if len(opts) > 0 {
		if opts[0].QueryTimeout > 0 {
			s.QueryTimeout = opts[0].QueryTimeout
		}
		if opts[0].Actors > 0 {
			s.actors = opts[0].Actors
		}
	}

	ctx, cancel := s.queryCtx()
	defer cancel()
	if err := migrate.NewRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// queryCtx returns a context bounded by the store's query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// withTimeout bounds a caller context by the store's query timeout.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.QueryTimeout)
}

// Actors returns the roster size rows are read with.
func (s *Store) Actors() int {
	return s.actors
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
