// Package backup keeps timestamped copies of the statistics database so a
// retraining run can be rolled back.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	defaultKeepLast = 10
	defaultPrefix   = "culprit"
	stampLayout     = "20060102-150405.000000000"
)

// Manager takes snapshots on demand and prunes old ones.
type Manager struct {
	store Snapshotter
	cfg   Config
	now   func() time.Time
}

// NewManager validates cfg. It returns nil when snapshots are disabled.
func NewManager(store Snapshotter, cfg Config) (*Manager, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if store == nil {
		return nil, fmt.Errorf("backup: nil snapshotter")
	}
	if strings.TrimSpace(store.DBPath()) == "" {
		return nil, fmt.Errorf("backup: db-path is empty (in-memory store)")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("backup: snapshot-dir is required when snapshots are enabled")
	}
	if cfg.KeepLast <= 0 {
		cfg.KeepLast = defaultKeepLast
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("backup: create snapshot-dir: %w", err)
	}
	return &Manager{store: store, cfg: cfg, now: time.Now}, nil
}

// RunOnce writes one snapshot and prunes all but the newest KeepLast.
// It returns the snapshot path.
func (m *Manager) RunOnce(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.duckdb", m.cfg.Prefix, m.now().UTC().Format(stampLayout))
	path := filepath.Join(m.cfg.Dir, name)

	if err := m.store.SnapshotTo(path); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	log.Printf("backup: created snapshot %s", path)

	if err := prune(m.cfg.Dir, m.cfg.Prefix, m.cfg.KeepLast); err != nil {
		return path, fmt.Errorf("prune snapshots: %w", err)
	}
	return path, nil
}

func prune(dir, prefix string, keepLast int) error {
	if keepLast <= 0 {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"-*.duckdb"))
	if err != nil {
		return err
	}
	if len(matches) <= keepLast {
		return nil
	}

	// The timestamp layout sorts lexically in time order.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, old := range matches[keepLast:] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
