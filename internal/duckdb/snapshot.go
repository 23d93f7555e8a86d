package duckdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrInMemoryStore is returned when snapshotting a store with no file.
var ErrInMemoryStore = errors.New("duckdb: in-memory store cannot be snapshotted")

// DBPath returns the database file, or "" for an in-memory store.
func (s *Store) DBPath() string {
	return s.dbPath
}

// SnapshotTo writes a copy of the database file to dstPath. The write lock
// is held from CHECKPOINT until the copy is in place, so statistics being
// replaced by a concurrent training run never land half-way into a snapshot.
func (s *Store) SnapshotTo(dstPath string) error {
	if s.dbPath == "" {
		return ErrInMemoryStore
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return writeSnapshot(s.dbPath, dstPath)
}

// writeSnapshot copies src into a hidden file beside dst and renames it over
// dst once synced.
func writeSnapshot(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open database file: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	tmp := out.Name()
	defer os.Remove(tmp)

	n, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("write snapshot: %s is empty", filepath.Base(src))
	}
	return os.Rename(tmp, dst)
}
