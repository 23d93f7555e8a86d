// Package migrate applies the statistics schema to a DuckDB database.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

// step is one schema file, versioned by its NNN_ file name prefix.
type step struct {
	version int
	file    string
}

// Runner brings a database up to the embedded schema version.
type Runner struct{ db *sql.DB }

// NewRunner returns a Runner for db.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

func steps() ([]step, error) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	out := make([]step, 0, len(files))
	for _, f := range files {
		var v int
		if _, err := fmt.Sscanf(path.Base(f), "%d_", &v); err != nil {
			return nil, fmt.Errorf("schema file %s has no version prefix", path.Base(f))
		}
		out = append(out, step{version: v, file: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// pending returns the applied version and the steps above it.
func (r *Runner) pending(ctx context.Context) (int, []step, error) {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`); err != nil {
		return 0, nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&applied); err != nil {
		return 0, nil, fmt.Errorf("read schema version: %w", err)
	}
	all, err := steps()
	if err != nil {
		return 0, nil, err
	}

	current := int(applied.Int64)
	i := sort.Search(len(all), func(i int) bool { return all[i].version > current })
	return current, all[i:], nil
}

// Run applies the pending schema steps in version order.
func (r *Runner) Run(ctx context.Context) error {
	_, todo, err := r.pending(ctx)
	if err != nil {
		return err
	}
	for _, s := range todo {
		if err := r.apply(ctx, s); err != nil {
			return fmt.Errorf("apply %s: %w", path.Base(s.file), err)
		}
		log.Printf("migrate: schema at version %d", s.version)
	}
	return nil
}

// apply runs one step and records it in the same transaction.
func (r *Runner) apply(ctx context.Context, s step) error {
	ddl, err := migrations.ReadFile(s.file)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		s.version, path.Base(s.file)); err != nil {
		return err
	}
	return tx.Commit()
}

// Status reports the applied version and how many steps remain.
func (r *Runner) Status(ctx context.Context) (current int, remaining int, err error) {
	current, todo, err := r.pending(ctx)
	if err != nil {
		return 0, 0, err
	}
	return current, len(todo), nil
}
