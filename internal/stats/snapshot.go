// Package stats holds the read-only statistics tables consulted by host
// predictors during inference.
package stats

import (
	"context"
	"sync"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Row is one attribute value's per-actor counts plus their total.
type Row struct {
	Value  int64
	Counts []int64
	Total  int64
}

// Best scans the row's actor columns and returns the column with the
// highest count and its share of the total. Ties keep the lowest column.
// A row with no positive count returns a neutral prediction.
func (r Row) Best() (model.Actor, float64) {
	var best int64
	actor := model.NoActor
	for i, n := range r.Counts {
		if n > best {
			best = n
			actor = model.Actor(i + 1)
		}
	}
	if actor == model.NoActor || r.Total <= 0 {
		return model.NoActor, 0
	}
	return actor, float64(best) / float64(r.Total)
}

type key struct {
	modality model.Modality
	category model.Category
}

// Snapshot is an in-memory copy of the statistics tables keyed by modality
// and category. It is safe for concurrent readers once loading is done.
type Snapshot struct {
	mu     sync.RWMutex
	actors int
	tables map[key]map[int64]Row
}

// NewSnapshot creates an empty snapshot for a roster of `actors` candidates.
func NewSnapshot(actors int) *Snapshot {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	return &Snapshot{
		actors: actors,
		tables: make(map[key]map[int64]Row),
	}
}

// Put stores a row, replacing any previous row for the same value.
// Counts are padded or truncated to the roster size and Total is
// recomputed when zero.
func (s *Snapshot) Put(m model.Modality, c model.Category, row Row) {
	counts := make([]int64, s.actors)
	var sum int64
	for i := 0; i < len(row.Counts) && i < s.actors; i++ {
		counts[i] = row.Counts[i]
		sum += row.Counts[i]
	}
	row.Counts = counts
	if row.Total == 0 {
		row.Total = sum
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{m, c}
	if s.tables[k] == nil {
		s.tables[k] = make(map[int64]Row)
	}
	s.tables[k][row.Value] = row
}

// Row returns the stored row for a value.
func (s *Snapshot) Row(m model.Modality, c model.Category, value int64) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tables[key{m, c}][value]
	return row, ok
}

// Lookup returns the actor with the largest count for value and its share
// of the row total. Unknown values return a NoActor prediction.
func (s *Snapshot) Lookup(_ context.Context, m model.Modality, c model.Category, value int64) (model.Prediction, error) {
	pred := model.Prediction{Modality: m}
	row, ok := s.Row(m, c, value)
	if !ok {
		return pred, nil
	}
	pred.Actor, pred.Confidence = row.Best()
	return pred, nil
}

// Len returns the number of rows stored for a modality and category.
func (s *Snapshot) Len(m model.Modality, c model.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[key{m, c}])
}

// Actors returns the roster size.
func (s *Snapshot) Actors() int {
	return s.actors
}
