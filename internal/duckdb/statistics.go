package duckdb

import (
	"context"
	"fmt"

	"github.com/tinytelemetry/culprit/internal/frequency"
	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/stats"
)

// ReplaceStatistics overwrites the stored table for one modality and
// category. Zero counts are not stored.
func (s *Store) ReplaceStatistics(ctx context.Context, m model.Modality, c model.Category, table frequency.Table) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attribute_counts WHERE modality = ? AND category = ?`,
		m.String(), c.String(),
	); err != nil {
		return fmt.Errorf("clear %s/%s: %w", m, c, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attribute_counts (modality, category, value, actor, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, value := range table.Values() {
		counts, _ := table.Row(value, s.actors)
		for i, n := range counts {
			if n == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, m.String(), c.String(), value, i+1, n); err != nil {
				return fmt.Errorf("insert %s/%s value=%d: %w", m, c, value, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Row reads one value's counts for a modality and category.
func (s *Store) Row(ctx context.Context, m model.Modality, c model.Category, value int64) (stats.Row, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT actor, count FROM attribute_counts
		WHERE modality = ? AND category = ? AND value = ?
		ORDER BY actor`,
		m.String(), c.String(), value)
	if err != nil {
		return stats.Row{}, false, err
	}
	defer rows.Close()

	row := stats.Row{Value: value, Counts: make([]int64, s.actors)}
	found := false
	for rows.Next() {
		var actor int
		var n int64
		if err := rows.Scan(&actor, &n); err != nil {
			return stats.Row{}, false, err
		}
		if actor < 1 || actor > s.actors {
			continue
		}
		row.Counts[actor-1] = n
		row.Total += n
		found = true
	}
	return row, found, rows.Err()
}

// Lookup returns the actor with the largest count for value and its share
// of the row total. Unknown values yield a NoActor prediction.
func (s *Store) Lookup(ctx context.Context, m model.Modality, c model.Category, value int64) (model.Prediction, error) {
	pred := model.Prediction{Modality: m}
	row, ok, err := s.Row(ctx, m, c, value)
	if err != nil {
		return pred, fmt.Errorf("lookup %s/%s value=%d: %w", m, c, value, err)
	}
	if ok {
		pred.Actor, pred.Confidence = row.Best()
	}
	return pred, nil
}

// LoadSnapshot copies every stored row into an in-memory snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*stats.Snapshot, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT modality, category, value, actor, count FROM attribute_counts
		ORDER BY modality, category, value, actor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := stats.NewSnapshot(s.actors)
	type rowKey struct {
		m model.Modality
		c model.Category
		v int64
	}
	pending := make(map[rowKey][]int64)
	var order []rowKey

	for rows.Next() {
		var modality, category string
		var value, n int64
		var actor int
		if err := rows.Scan(&modality, &category, &value, &actor, &n); err != nil {
			return nil, err
		}
		m, err := model.ParseModality(modality)
		if err != nil {
			return nil, err
		}
		c, err := model.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		if actor < 1 || actor > s.actors {
			continue
		}
		k := rowKey{m, c, value}
		counts, ok := pending[k]
		if !ok {
			counts = make([]int64, s.actors)
			order = append(order, k)
		}
		counts[actor-1] = n
		pending[k] = counts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, k := range order {
		snap.Put(k.m, k.c, stats.Row{Value: k.v, Counts: pending[k]})
	}
	return snap, nil
}
