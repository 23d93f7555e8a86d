package stats

import (
	"context"
	"math"
	"testing"

	"github.com/tinytelemetry/culprit/internal/model"
)

func TestLookup_MaxOverTotal(t *testing.T) {
	t.Parallel()

	s := NewSnapshot(6)
	s.Put(model.HostSecurity, model.EventID, Row{Value: 42, Counts: []int64{5, 1, 0, 0, 0, 9}, Total: 15})

	pred, err := s.Lookup(context.Background(), model.HostSecurity, model.EventID, 42)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if pred.Actor != 6 {
		t.Errorf("actor = %d, want 6", pred.Actor)
	}
	if math.Abs(pred.Confidence-0.6) > 1e-9 {
		t.Errorf("confidence = %v, want 0.6", pred.Confidence)
	}
}

func TestLookup_NoMatchIsNeutral(t *testing.T) {
	t.Parallel()

	s := NewSnapshot(6)
	s.Put(model.HostSecurity, model.EventID, Row{Value: 42, Counts: []int64{1}})

	tests := []struct {
		name     string
		modality model.Modality
		category model.Category
		value    int64
	}{
		{"unknown value", model.HostSecurity, model.EventID, 43},
		{"other category", model.HostSecurity, model.Task, 42},
		{"other modality", model.HostMonitoring, model.EventID, 42},
	}
	for _, tt := range tests {
		pred, err := s.Lookup(context.Background(), tt.modality, tt.category, tt.value)
		if err != nil {
			t.Fatalf("%s: Lookup: %v", tt.name, err)
		}
		if pred.Actor != model.NoActor || pred.Confidence != 0 {
			t.Errorf("%s: got (%d, %v), want (0, 0)", tt.name, pred.Actor, pred.Confidence)
		}
	}
}

func TestRowBest_TiesFavorLowestColumn(t *testing.T) {
	t.Parallel()

	row := Row{Counts: []int64{0, 4, 0, 4, 0, 0}, Total: 8}
	actor, conf := row.Best()
	if actor != 2 {
		t.Errorf("actor = %d, want 2", actor)
	}
	if conf != 0.5 {
		t.Errorf("confidence = %v, want 0.5", conf)
	}
}

func TestRowBest_AllZero(t *testing.T) {
	t.Parallel()

	actor, conf := Row{Counts: make([]int64, 6)}.Best()
	if actor != model.NoActor || conf != 0 {
		t.Errorf("got (%d, %v), want neutral", actor, conf)
	}
}

func TestLookup_Idempotent(t *testing.T) {
	t.Parallel()

	s := NewSnapshot(6)
	s.Put(model.HostMonitoring, model.ProcessID, Row{Value: 4, Counts: []int64{2, 3, 3}})

	first, _ := s.Lookup(context.Background(), model.HostMonitoring, model.ProcessID, 4)
	for i := 0; i < 5; i++ {
		again, _ := s.Lookup(context.Background(), model.HostMonitoring, model.ProcessID, 4)
		if again != first {
			t.Fatalf("lookup %d = %+v, want %+v", i, again, first)
		}
	}
	if first.Actor != 2 {
		t.Errorf("actor = %d, want 2", first.Actor)
	}
}

func TestPut_ComputesTotal(t *testing.T) {
	t.Parallel()

	s := NewSnapshot(3)
	s.Put(model.HostSecurity, model.Task, Row{Value: 1, Counts: []int64{1, 2, 3, 4}})
	row, ok := s.Row(model.HostSecurity, model.Task, 1)
	if !ok {
		t.Fatal("row not stored")
	}
	if len(row.Counts) != 3 || row.Total != 6 {
		t.Errorf("row = %+v, want 3 counts totalling 6", row)
	}
}
