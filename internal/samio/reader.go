package samio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/inodb/vibe-cs/internal/cstag"
)

// ErrMissingCS is returned for a mapped record without a cs tag. The reader
// stays usable after it.
var ErrMissingCS = errors.New("mapped record has no cs tag")

// ErrNotPrimary is returned for secondary and supplementary records. Only the
// primary alignment of a read is decoded, so each read yields at most one
// result per feature.
var ErrNotPrimary = errors.New("record is not a primary alignment")

var csTag = sam.NewTag("cs")

// Reader reads alignment records from a SAM or BAM stream.
type Reader struct {
	file   *os.File
	bam    *bam.Reader
	rr     sam.RecordReader
	header *sam.Header
	count  int
}

// Open opens a SAM or BAM file. "-" reads from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, 1)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment file: %w", err)
	}

	r, err := NewReader(file, 1)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader creates a reader from an io.Reader. BAM input is detected by its
// BGZF (gzip) magic bytes; anything else is read as SAM text. workers sets
// the number of BAM decompression goroutines.
func NewReader(in io.Reader, workers int) (*Reader, error) {
	br := bufio.NewReader(in)

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read alignment header: %w", err)
	}

	r := &Reader{}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.bam, err = bam.NewReader(br, workers)
		if err != nil {
			return nil, fmt.Errorf("create bam reader: %w", err)
		}
		r.rr = r.bam
		r.header = r.bam.Header()
		return r, nil
	}

	sr, err := sam.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("create sam reader: %w", err)
	}
	r.rr = sr
	r.header = sr.Header()
	return r, nil
}

// Header returns the SAM header.
func (r *Reader) Header() *sam.Header {
	return r.header
}

// Next reads the next record. Unmapped records are returned with Unmapped
// set. A mapped record without a cs tag returns an error wrapping
// ErrMissingCS, and a secondary or supplementary record one wrapping
// ErrNotPrimary; the record is returned with both.
func (r *Reader) Next() (*cstag.Record, error) {
	rec, err := r.rr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read alignment record %d: %w", r.count+1, err)
	}
	r.count++
	return FromSAM(rec)
}

// FromSAM converts a SAM record into a cs alignment record.
func FromSAM(rec *sam.Record) (*cstag.Record, error) {
	out := &cstag.Record{
		QueryName: rec.Name,
		Reverse:   rec.Flags&sam.Reverse != 0,
		Unmapped:  rec.Flags&sam.Unmapped != 0,
	}
	if out.Unmapped {
		return out, nil
	}
	if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
		return out, fmt.Errorf("%w: %s has flags %v", ErrNotPrimary, rec.Name, rec.Flags)
	}

	if rec.Ref != nil {
		out.TargetName = rec.Ref.Name()
	}
	out.TargetStart = rec.Start()
	out.TargetEnd = rec.End()
	out.QueryLength, out.QueryStart, out.QueryEnd = queryBounds(rec.Cigar)

	aux, ok := rec.Tag(csTag[:])
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrMissingCS, rec.Name)
	}
	cs, ok := aux.Value().(string)
	if !ok {
		return out, fmt.Errorf("%w: %s has non-string cs tag", ErrMissingCS, rec.Name)
	}
	out.CS = cs
	return out, nil
}

// queryBounds returns the query length (bases present in SEQ, so hard clips
// excluded) and the half-open query interval that is aligned.
func queryBounds(cigar sam.Cigar) (length, start, end int) {
	first := true
	var trailing int
	for _, co := range cigar {
		t := co.Type()
		switch t {
		case sam.CigarHardClipped:
			continue
		case sam.CigarSoftClipped:
			if first {
				start += co.Len()
			} else {
				trailing += co.Len()
			}
		default:
			first = false
		}
		length += co.Len() * t.Consumes().Query
	}
	return length, start, length - trailing
}

// Count returns the number of records read so far.
func (r *Reader) Count() int {
	return r.count
}

// Close closes the reader and the underlying file, if it owns one.
func (r *Reader) Close() error {
	var err error
	if r.bam != nil {
		err = r.bam.Close()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
