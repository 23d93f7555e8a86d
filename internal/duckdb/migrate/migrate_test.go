package migrate

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

const migrationCount = 3

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunCreatesStatisticsTables(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := NewRunner(db).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{"attribute_counts", "attributions", "schema_migrations"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	cur, pending, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != migrationCount || pending != 0 {
		t.Errorf("expected version=%d pending=0, got version=%d pending=%d", migrationCount, cur, pending)
	}
}

func TestStatusBeforeRun(t *testing.T) {
	db := openTestDB(t)

	cur, pending, err := NewRunner(db).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cur != 0 || pending != migrationCount {
		t.Errorf("expected version=0 pending=%d, got version=%d pending=%d", migrationCount, cur, pending)
	}
}

func TestStepsOrderedByVersion(t *testing.T) {
	all, err := steps()
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	if len(all) != migrationCount {
		t.Fatalf("steps = %d, want %d", len(all), migrationCount)
	}
	for i, s := range all {
		if s.version != i+1 {
			t.Errorf("step %d version = %d (%s)", i, s.version, s.file)
		}
	}
}
