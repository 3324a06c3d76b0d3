// Package samio reads aligned reads carrying a short cs tag from SAM or BAM
// files.
package samio

import "github.com/inodb/vibe-cs/internal/cstag"

// RecordReader is the interface for readers that produce alignment records.
type RecordReader interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*cstag.Record, error)

	// Close closes the reader and releases resources.
	Close() error

	// Count returns the number of records read so far.
	Count() int
}
