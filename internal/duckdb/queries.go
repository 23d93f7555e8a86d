package duckdb

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
)

const maxQueryRows = 1000

// statisticsTables are the tables ad-hoc queries may read, alongside the
// catalog views in catalogViews.
var (
	statisticsTables = []string{"attribute_counts", "attributions"}
	catalogViews     = []string{"information_schema.tables", "information_schema.columns"}
)

var (
	errNotReadOnly = errors.New("only a single SELECT or WITH query over the statistics tables is allowed")

	sqlComment     = regexp.MustCompile(`(?s)/\*.*?\*/|--[^\n]*`)
	leadingKeyword = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	// Statements that change data or session state, matched as whole words.
	writeKeyword = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|DETACH|LOAD|INSTALL|EXPORT|IMPORT|CALL|EXECUTE|PRAGMA|SET)\b`)
	// Table functions that read files or engine internals.
	tableFunc = regexp.MustCompile(`(?i)\b(read_\w+|glob|\w+_scan|duckdb_\w+|pragma_\w+)\s*\(`)
	tableRef  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)
	cteName   = regexp.MustCompile(`(?i)(?:\bWITH|,)\s*([A-Za-z_]\w*)\s+AS\s*\(`)
)

// checkStatisticsQuery accepts a single SELECT or WITH statement whose FROM
// and JOIN targets are statistics tables or its own common table expressions.
func checkStatisticsQuery(query string) error {
	if strings.Contains(query, ";") {
		return fmt.Errorf("%w: semicolons are not allowed", errNotReadOnly)
	}
	q := strings.TrimSpace(sqlComment.ReplaceAllString(query, " "))
	if !leadingKeyword.MatchString(q) {
		return errNotReadOnly
	}
	if kw := writeKeyword.FindString(q); kw != "" {
		return fmt.Errorf("%w: %s", errNotReadOnly, strings.ToUpper(kw))
	}
	if fn := tableFunc.FindStringSubmatch(q); fn != nil {
		return fmt.Errorf("%w: table function %s", errNotReadOnly, fn[1])
	}

	readable := make(map[string]bool, len(statisticsTables)+len(catalogViews))
	for _, t := range append(statisticsTables, catalogViews...) {
		readable[t] = true
	}
	for _, m := range cteName.FindAllStringSubmatch(q, -1) {
		readable[strings.ToLower(m[1])] = true
	}
	for _, m := range tableRef.FindAllStringSubmatch(q, -1) {
		name := strings.TrimPrefix(strings.ToLower(m[1]), "main.")
		if !readable[name] {
			return fmt.Errorf("%w: unknown table %s", errNotReadOnly, m[1])
		}
	}
	return nil
}

// ExecuteQuery runs a read-only query over the statistics tables and returns
// up to maxQueryRows rows keyed by column name.
func (s *Store) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	query = strings.TrimSpace(query)
	if err := checkStatisticsQuery(query); err != nil {
		return nil, err
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	results := make([]map[string]interface{}, 0)
	cells := make([]interface{}, len(columns))
	for rows.Next() && len(results) < maxQueryRows {
		values := make([]interface{}, len(columns))
		for i := range cells {
			cells[i] = &values[i]
		}
		if err := rows.Scan(cells...); err != nil {
			log.Printf("duckdb: query row %d: %v", len(results)+1, err)
			continue
		}
		row := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			row[name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// SchemaDescription describes the statistics tables for query authors.
func (s *Store) SchemaDescription() string {
	return `attribute_counts(modality VARCHAR host-security|host-monitoring, ` +
		`category VARCHAR ProcessID|EventID|Task, value BIGINT, actor INTEGER 1-based, count BIGINT); ` +
		`attributions(id BIGINT, recorded_at TIMESTAMP, test_case VARCHAR, actor INTEGER, ` +
		`network_actor INTEGER, security_actor INTEGER, monitoring_actor INTEGER, tied BOOLEAN). ` +
		`Per-modality actor columns hold 0 when that predictor abstained.`
}

// TableRowCounts returns the row count of each statistics table.
func (s *Store) TableRowCounts() (map[string]int64, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64, len(statisticsTables))
	for _, table := range statisticsTables {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
