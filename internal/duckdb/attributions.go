package duckdb

import (
	"context"
	"time"

	"github.com/tinytelemetry/culprit/internal/model"
)

// RecordAttribution appends one verdict to the attribution history.
func (s *Store) RecordAttribution(ctx context.Context, rec model.AttributionRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attributions (recorded_at, test_case, actor, network_actor, security_actor, monitoring_actor, tied)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Case, int(rec.Actor), int(rec.Network), int(rec.Security), int(rec.Monitoring), rec.Tied,
	)
	return err
}

// RecentAttributions returns the newest verdicts first, optionally
// restricted to one test case name.
func (s *Store) RecentAttributions(ctx context.Context, limit int, testCase string) ([]model.AttributionRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT recorded_at, test_case, actor, network_actor, security_actor, monitoring_actor, tied
		FROM attributions`
	args := []interface{}{}
	if testCase != "" {
		query += ` WHERE test_case = ?`
		args = append(args, testCase)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.AttributionRecord
	for rows.Next() {
		var rec model.AttributionRecord
		var actor, network, security, monitoring int
		if err := rows.Scan(&rec.Timestamp, &rec.Case, &actor, &network, &security, &monitoring, &rec.Tied); err != nil {
			return nil, err
		}
		rec.Actor = model.Actor(actor)
		rec.Network = model.Actor(network)
		rec.Security = model.Actor(security)
		rec.Monitoring = model.Actor(monitoring)
		results = append(results, rec)
	}
	return results, rows.Err()
}
