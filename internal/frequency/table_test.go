package frequency

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tinytelemetry/culprit/internal/model"
)

func TestMerge_Scenario(t *testing.T) {
	t.Parallel()

	table := Table{Columns: 1, Rows: map[int64][]int64{100: {3}}}

	table = Merge(table, map[int64]int64{100: 2}, 1)
	if got := table.Rows[100]; !reflect.DeepEqual(got, []int64{3, 2}) {
		t.Fatalf("after actor 2: row 100 = %v, want [3 2]", got)
	}

	table = Merge(table, map[int64]int64{200: 1}, 2)
	if got := table.Rows[200]; !reflect.DeepEqual(got, []int64{0, 0, 1}) {
		t.Errorf("row 200 = %v, want [0 0 1]", got)
	}
	if got := table.Rows[100]; !reflect.DeepEqual(got, []int64{3, 2, 0}) {
		t.Errorf("row 100 = %v, want [3 2 0]", got)
	}
	if table.Columns != 3 {
		t.Errorf("Columns = %d, want 3", table.Columns)
	}
}

func TestMerge_DoesNotModifyExisting(t *testing.T) {
	t.Parallel()

	existing := Table{Columns: 1, Rows: map[int64][]int64{7: {1}}}
	_ = Merge(existing, map[int64]int64{7: 4, 8: 1}, 1)

	if got := existing.Rows[7]; !reflect.DeepEqual(got, []int64{1}) {
		t.Errorf("existing row mutated: %v", got)
	}
	if _, ok := existing.Rows[8]; ok {
		t.Error("existing table gained a row")
	}
}

func TestMerge_VectorLengthInvariant(t *testing.T) {
	t.Parallel()

	increments := []map[int64]int64{
		{1: 5, 2: 1},
		{},
		{2: 3, 9: 9},
		{1: 1},
		{4: 2, 5: 2, 6: 2},
		{9: 1},
	}

	table := NewTable()
	for k, inc := range increments {
		table = Merge(table, inc, k)
		for value, row := range table.Rows {
			if len(row) != k+1 {
				t.Fatalf("after %d merges: row %d has length %d", k+1, value, len(row))
			}
		}
	}
}

func TestTableRow_PadsAndTotals(t *testing.T) {
	t.Parallel()

	table := Table{Columns: 2, Rows: map[int64][]int64{42: {5, 1}}}
	counts, total := table.Row(42, 6)
	if !reflect.DeepEqual(counts, []int64{5, 1, 0, 0, 0, 0}) {
		t.Errorf("counts = %v", counts)
	}
	if total != 6 {
		t.Errorf("total = %d, want 6", total)
	}

	counts, total = table.Row(43, 3)
	if !reflect.DeepEqual(counts, []int64{0, 0, 0}) || total != 0 {
		t.Errorf("missing row = %v/%d, want zeros", counts, total)
	}
}

func TestMode_FirstSeenWinsTies(t *testing.T) {
	t.Parallel()

	events := []model.Event{
		{ProcessID: 10, EventID: 4624, Task: model.Absent},
		{ProcessID: 20, EventID: 4688, Task: model.Absent},
		{ProcessID: 20, EventID: 4624, Task: model.Absent},
		{ProcessID: 10, EventID: 4688, Task: model.Absent},
	}

	tests := []struct {
		category model.Category
		want     int64
		ok       bool
	}{
		{model.ProcessID, 10, true},
		{model.EventID, 4624, true},
		{model.Task, 0, false},
	}
	for _, tt := range tests {
		got, ok := Mode(events, tt.category)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Mode(%s) = %d,%v want %d,%v", tt.category, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMode_HighestCount(t *testing.T) {
	t.Parallel()

	events := []model.Event{{Task: 1}, {Task: 2}, {Task: 2}, {Task: 3}}
	if got, _ := Mode(events, model.Task); got != 2 {
		t.Errorf("Mode = %d, want 2", got)
	}
}

func TestBuilder_LabelOrder(t *testing.T) {
	t.Parallel()

	b := NewBuilder(6)
	events := []model.Event{{ProcessID: 4, EventID: 4624, Task: 12544}}

	if err := b.Add(1, events); err != nil {
		t.Fatalf("Add(1): %v", err)
	}
	if err := b.Add(1, events); err != nil {
		t.Fatalf("Add(1) again: %v", err)
	}
	if err := b.Add(3, nil); err != nil {
		t.Fatalf("Add(3): %v", err)
	}
	if err := b.Add(2, events); !errors.Is(err, ErrLabelOrder) {
		t.Fatalf("Add(2) err = %v, want ErrLabelOrder", err)
	}
	if err := b.Add(7, events); !errors.Is(err, ErrActorOutOfRange) {
		t.Fatalf("Add(7) err = %v, want ErrActorOutOfRange", err)
	}

	table := b.Table(model.EventID)
	if got := table.Rows[4624]; !reflect.DeepEqual(got, []int64{2, 0, 0}) {
		t.Errorf("EventID row = %v, want [2 0 0]", got)
	}
	if b.Cases() != 3 {
		t.Errorf("Cases = %d, want 3", b.Cases())
	}
}
