package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/inodb/vibe-cs/internal/parse"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether two fingerprints describe the same file contents.
// Modification times compare at microsecond precision, the TIMESTAMP resolution.
func (f FileFingerprint) Matches(other FileFingerprint) bool {
	return f.Path == other.Path && f.Size == other.Size &&
		f.ModTime.Truncate(time.Microsecond).Equal(other.ModTime.Truncate(time.Microsecond))
}

// Run records one completed parse of an input file.
type Run struct {
	Input      FileFingerprint
	Stats      parse.Stats
	FinishedAt time.Time
}

// RecordRun stores a completed run.
func (s *Store) RecordRun(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Input.Path, r.Input.Size, r.Input.ModTime.UTC(),
		r.Stats.Records, r.Stats.Unmapped, r.Stats.Skipped, r.Stats.Filtered, r.Stats.Failed, r.Stats.Rows,
		r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run of the input at path.
func (s *Store) LastRun(path string) (Run, bool, error) {
	var r Run
	err := s.db.QueryRow(`SELECT input_path, input_size, input_mtime,
		records, unmapped, skipped, filtered, failed, rows_written, finished_at
		FROM runs
		WHERE input_path=?
		ORDER BY finished_at DESC
		LIMIT 1`, path).Scan(
		&r.Input.Path, &r.Input.Size, &r.Input.ModTime,
		&r.Stats.Records, &r.Stats.Unmapped, &r.Stats.Skipped, &r.Stats.Filtered, &r.Stats.Failed, &r.Stats.Rows,
		&r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("query last run: %w", err)
	}
	return r, true, nil
}

// IsCurrent reports whether the store already holds a run of the file
// described by fp.
func (s *Store) IsCurrent(fp FileFingerprint) (bool, error) {
	r, ok, err := s.LastRun(fp.Path)
	if err != nil || !ok {
		return false, err
	}
	return r.Input.Matches(fp), nil
}
