package labels

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	m, err := Load(filepath.Join(t.TempDir(), "labels.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m != nil {
		t.Fatalf("manifest = %+v, want nil", m)
	}
}

func TestLoad_Assign(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "labels.yml")
	body := "cases:\n  alice-2: 1\n  carol: 3\n  alice-1: 1\n  bob: 2\n  ghost: 4\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Validate(6); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	got := m.Assign([]string{"carol", "bob", "alice-2", "alice-1", "unlabeled"})
	want := []Assignment{
		{Name: "alice-1", Actor: 1},
		{Name: "alice-2", Actor: 1},
		{Name: "bob", Actor: 2},
		{Name: "carol", Actor: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assign = %+v, want %+v", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown key", body: "labels:\n  a: 1\n"},
		{name: "non-numeric actor", body: "cases:\n  a: alice\n"},
		{name: "not yaml", body: "cases: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate_OutOfRange(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte("cases:\n  a: 7\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := m.Validate(6); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestPositional(t *testing.T) {
	t.Parallel()

	got := Positional([]string{"c", "a", "b"}, 2)
	want := []Assignment{{Name: "a", Actor: 1}, {Name: "b", Actor: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Positional = %+v, want %+v", got, want)
	}
}
