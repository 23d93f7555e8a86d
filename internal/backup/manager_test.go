package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSnapshotter struct {
	dbPath string
	data   []byte
}

func (f *fakeSnapshotter) DBPath() string { return f.dbPath }

func (f *fakeSnapshotter) SnapshotTo(dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(dstPath, f.data, 0644)
}

func TestNewManager_Disabled(t *testing.T) {
	t.Parallel()

	m, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/culprit.duckdb"}, Config{})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil manager when disabled")
	}
}

func TestNewManager_EnabledRequiresDBPath(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&fakeSnapshotter{}, Config{Enabled: true, Dir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for empty db path")
	}
}

func TestNewManager_EnabledRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/culprit.duckdb"}, Config{Enabled: true})
	if err == nil {
		t.Fatal("expected error for empty snapshot dir")
	}
}

func TestRunOnce_CreatesAndPrunes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/culprit.duckdb", data: []byte("snapshot")}, Config{
		Enabled:  true,
		Dir:      dir,
		KeepLast: 2,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var paths []string
	for i := 0; i < 3; i++ {
		stamp := base.Add(time.Duration(i) * time.Minute)
		m.now = func() time.Time { return stamp }
		path, err := m.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce #%d: %v", i+1, err)
		}
		paths = append(paths, path)
	}

	files, err := filepath.Glob(filepath.Join(dir, "culprit-*.duckdb"))
	if err != nil {
		t.Fatalf("glob snapshots: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("snapshot count = %d, want 2", len(files))
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Errorf("oldest snapshot %s was not pruned", paths[0])
	}
	if _, err := os.Stat(paths[2]); err != nil {
		t.Errorf("newest snapshot missing: %v", err)
	}
}
