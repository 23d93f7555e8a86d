// Package frequency builds attribute -> per-actor count tables from labeled
// training cases.
package frequency

import (
	"sort"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Table maps an attribute value to one count per actor column.
// Every row has exactly Columns entries.
type Table struct {
	Columns int
	Rows    map[int64][]int64
}

// NewTable returns an empty table with no columns.
func NewTable() Table {
	return Table{Rows: make(map[int64][]int64)}
}

// Merge adds one training increment as column `column` of existing.
//
// Values present in both get the new count appended after the existing
// counts, values only in existing get a zero, and values only in the
// increment get `column` zeros followed by the count. The result has
// column+1 columns. existing is not modified.
func Merge(existing Table, increment map[int64]int64, column int) Table {
	out := Table{
		Columns: column + 1,
		Rows:    make(map[int64][]int64, len(existing.Rows)+len(increment)),
	}
	for value, counts := range existing.Rows {
		row := make([]int64, 0, column+1)
		row = append(row, counts...)
		row = pad(row, column)
		row = append(row, increment[value])
		out.Rows[value] = row
	}
	for value, n := range increment {
		if _, ok := existing.Rows[value]; ok {
			continue
		}
		row := make([]int64, column, column+1)
		out.Rows[value] = append(row, n)
	}
	return out
}

// pad extends row with zeros up to n entries.
func pad(row []int64, n int) []int64 {
	for len(row) < n {
		row = append(row, 0)
	}
	return row
}

// Row returns the counts for value padded with zeros to width, and the row
// total. Missing values return a zero row.
func (t Table) Row(value int64, width int) ([]int64, int64) {
	counts := make([]int64, width)
	var total int64
	for i, n := range t.Rows[value] {
		if i >= width {
			break
		}
		counts[i] = n
		total += n
	}
	return counts, total
}

// Values returns the table's attribute values in ascending order.
func (t Table) Values() []int64 {
	values := make([]int64, 0, len(t.Rows))
	for v := range t.Rows {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values
}

// Histogram counts a category's values across events. order lists each
// value once, in the order it was first seen.
func Histogram(events []model.Event, c model.Category) (counts map[int64]int64, order []int64) {
	counts = make(map[int64]int64)
	for _, e := range events {
		v, ok := e.Value(c)
		if !ok {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	return counts, order
}

// Mode returns the most frequent value of a category. Ties go to the value
// seen first. ok is false when no event carries the category.
func Mode(events []model.Event, c model.Category) (value int64, ok bool) {
	counts, order := Histogram(events, c)
	var best int64
	for _, v := range order {
		if counts[v] > best {
			best = counts[v]
			value = v
			ok = true
		}
	}
	return value, ok
}
