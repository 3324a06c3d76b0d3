package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-cs/internal/parse"
)

const resultColumns = `query_name, query_clip5, query_clip3, target, orientation, feature,
		cs, clip5, clip3, mutations, n_nt_mutations, n_op_mutations, sequence`

// resultKey identifies one feature of one read for deduplicating results before writing.
type resultKey struct {
	queryName, target, feature string
}

// WriteFeatureResults batch-inserts feature results parsed from input into DuckDB
// using the Appender API. Duplicate (query_name, target, feature) entries in the
// batch keep the first result.
func (s *Store) WriteFeatureResults(input string, results []*parse.FeatureResult) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[resultKey]bool, len(results))
	deduped := make([]*parse.FeatureResult, 0, len(results))
	for _, r := range results {
		k := resultKey{r.QueryName, r.Target, r.Feature}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "feature_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(
			input, r.QueryName, int64(r.QueryClip5), int64(r.QueryClip3),
			r.Target, r.Orientation, r.Feature,
			r.CS, int64(r.Clip5), int64(r.Clip3), r.Mutations,
			int64(r.NtMutations), int64(r.OpMutations), r.Sequence,
		); err != nil {
			return fmt.Errorf("append feature result: %w", err)
		}
	}

	return appender.Flush()
}

// ClearFeatureResults removes all stored feature results.
func (s *Store) ClearFeatureResults() error {
	_, err := s.db.Exec("DELETE FROM feature_results")
	return err
}

// ClearInput removes the feature results and run records of one input, so
// that parsing it again replaces rather than duplicates its rows.
func (s *Store) ClearInput(input string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM feature_results WHERE input_path=?", input); err != nil {
		return fmt.Errorf("clear feature results of %s: %w", input, err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE input_path=?", input); err != nil {
		return fmt.Errorf("clear runs of %s: %w", input, err)
	}
	return tx.Commit()
}

// CountInput returns the number of feature results stored for one input.
func (s *Store) CountInput(input string) (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM feature_results WHERE input_path=?", input).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feature results of %s: %w", input, err)
	}
	return n, nil
}

// LookupRead returns the stored results of one read in insertion order.
func (s *Store) LookupRead(queryName string) ([]*parse.FeatureResult, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+`
		FROM feature_results
		WHERE query_name=?
		ORDER BY rowid`, queryName)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}
	defer rows.Close()

	return scanFeatureResults(rows)
}

// SearchByFeature returns all stored results for one feature of a target.
func (s *Store) SearchByFeature(target, feature string) ([]*parse.FeatureResult, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+`
		FROM feature_results
		WHERE target=? AND feature=?
		ORDER BY rowid`, target, feature)
	if err != nil {
		return nil, fmt.Errorf("query by feature: %w", err)
	}
	defer rows.Close()

	return scanFeatureResults(rows)
}

// MutationCount is the number of reads carrying one mutation string in a feature.
// An empty Mutations is the unmutated feature.
type MutationCount struct {
	Mutations string
	Reads     int
}

// MutationCounts returns mutation string frequencies for one feature, most
// frequent first.
func (s *Store) MutationCounts(target, feature string) ([]MutationCount, error) {
	rows, err := s.db.Query(`SELECT mutations, count(*) AS n
		FROM feature_results
		WHERE target=? AND feature=?
		GROUP BY mutations
		ORDER BY n DESC, mutations`, target, feature)
	if err != nil {
		return nil, fmt.Errorf("query mutation counts: %w", err)
	}
	defer rows.Close()

	var counts []MutationCount
	for rows.Next() {
		var c MutationCount
		if err := rows.Scan(&c.Mutations, &c.Reads); err != nil {
			return nil, fmt.Errorf("scan mutation count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutation counts: %w", err)
	}
	return counts, nil
}

// scanFeatureResults scans rows into FeatureResult slices.
func scanFeatureResults(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*parse.FeatureResult, error) {
	var results []*parse.FeatureResult
	for rows.Next() {
		var r parse.FeatureResult
		if err := rows.Scan(
			&r.QueryName, &r.QueryClip5, &r.QueryClip3,
			&r.Target, &r.Orientation, &r.Feature,
			&r.CS, &r.Clip5, &r.Clip3, &r.Mutations,
			&r.NtMutations, &r.OpMutations, &r.Sequence,
		); err != nil {
			return nil, fmt.Errorf("scan feature result: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature results: %w", err)
	}
	return results, nil
}
