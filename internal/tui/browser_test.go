package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/culprit/internal/model"
)

type stubHistory struct {
	records []model.AttributionRecord
	err     error
	calls   int
}

func (s *stubHistory) RecentAttributions(_ context.Context, limit int, _ string) ([]model.AttributionRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.records) {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func sampleRecords() []model.AttributionRecord {
	at := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	return []model.AttributionRecord{
		{Timestamp: at, Case: "case-1", Actor: 2, Network: 2, Security: 2, Monitoring: 4},
		{Timestamp: at, Case: "case-2", Actor: 5, Network: 5, Security: 1, Tied: true},
		{Timestamp: at, Case: "case-3"},
	}
}

func TestTally(t *testing.T) {
	t.Parallel()

	records := append(sampleRecords(), model.AttributionRecord{Actor: 9})
	got := Tally(records, 6)
	want := []int{2, 0, 1, 0, 0, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tally = %v, want %v", got, want)
	}
}

func TestBrowser_LoadsHistory(t *testing.T) {
	t.Parallel()

	src := &stubHistory{records: sampleRecords()}
	b := NewBrowser(src, 6, 50, time.Hour)

	msg := b.fetchCmd()()
	b.Update(msg)

	if len(b.records) != 3 {
		t.Fatalf("records = %d, want 3", len(b.records))
	}
	view := b.View()
	for _, want := range []string{"Attributions (3)", "case-1", "case-2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBrowser_RefreshError(t *testing.T) {
	t.Parallel()

	src := &stubHistory{err: errors.New("database is locked")}
	b := NewBrowser(src, 6, 50, time.Hour)
	b.Update(b.fetchCmd()())

	if b.err == nil {
		t.Fatal("expected refresh error")
	}
	if !strings.Contains(b.View(), "database is locked") {
		t.Error("view should show the refresh error")
	}
}

func TestBrowser_PauseSkipsTickFetch(t *testing.T) {
	t.Parallel()

	b := NewBrowser(&stubHistory{}, 6, 50, time.Hour)
	b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !b.paused {
		t.Fatal("p should pause refresh")
	}

	b.Update(TickMsg(time.Now()))
	if b.inFlight {
		t.Error("tick while paused should not start a fetch")
	}
}

func TestBrowser_Quit(t *testing.T) {
	t.Parallel()

	b := NewBrowser(&stubHistory{}, 6, 50, time.Hour)
	_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	got := rows(sampleRecords())
	if len(got) != 3 {
		t.Fatalf("rows = %d", len(got))
	}
	if got[1][2] != "5" || got[1][6] != "*" {
		t.Errorf("tied row = %v", got[1])
	}
	if got[2][2] != "-" || got[0][5] != "4" {
		t.Errorf("rows = %v", got)
	}
}
