package frequency

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/culprit/internal/model"
)

var (
	// ErrLabelOrder indicates a training case arrived out of actor order.
	ErrLabelOrder = errors.New("frequency: training case out of actor order")
	// ErrActorOutOfRange indicates a label outside the configured roster.
	ErrActorOutOfRange = errors.New("frequency: actor out of range")
)

// Builder accumulates one modality's tables across training cases.
// Column N-1 holds actor N; cases must be added in actor order, and several
// consecutive cases may share an actor. An actor with no cases keeps an
// all-zero column.
type Builder struct {
	actors int
	last   model.Actor
	tables map[model.Category]Table
	cases  int
}

// NewBuilder creates a builder for a roster of `actors` candidates.
func NewBuilder(actors int) *Builder {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	tables := make(map[model.Category]Table, len(model.Categories))
	for _, c := range model.Categories {
		tables[c] = NewTable()
	}
	return &Builder{actors: actors, tables: tables}
}

// Add merges one labeled case's events.
func (b *Builder) Add(actor model.Actor, events []model.Event) error {
	if actor < 1 || int(actor) > b.actors {
		return fmt.Errorf("%w: %d (roster %d)", ErrActorOutOfRange, actor, b.actors)
	}
	switch {
	case actor == b.last:
		for _, c := range model.Categories {
			counts, _ := Histogram(events, c)
			b.tables[c] = accumulate(b.tables[c], counts)
		}
	case actor > b.last:
		column := int(actor) - 1
		for _, c := range model.Categories {
			counts, _ := Histogram(events, c)
			b.tables[c] = Merge(b.tables[c], counts, column)
		}
		b.last = actor
	default:
		return fmt.Errorf("%w: got actor %d after actor %d", ErrLabelOrder, actor, b.last)
	}
	b.cases++
	return nil
}

// accumulate adds counts into the last column of t.
func accumulate(t Table, counts map[int64]int64) Table {
	last := t.Columns - 1
	for value, n := range counts {
		row, ok := t.Rows[value]
		if !ok {
			row = make([]int64, t.Columns)
			t.Rows[value] = row
		}
		row[last] += n
	}
	return t
}

// Table returns the table built so far for a category.
func (b *Builder) Table(c model.Category) Table {
	return b.tables[c]
}

// Cases returns the number of training cases added.
func (b *Builder) Cases() int {
	return b.cases
}

// Actors returns the roster size.
func (b *Builder) Actors() int {
	return b.actors
}
