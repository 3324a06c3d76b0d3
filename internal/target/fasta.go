package target

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// FASTALoader loads target sequences from a FASTA file.
type FASTALoader struct {
	path      string
	sequences map[string]string // target name -> sequence
}

// NewFASTALoader creates a new FASTA loader.
func NewFASTALoader(path string) *FASTALoader {
	return &FASTALoader{
		path:      path,
		sequences: make(map[string]string),
	}
}

// Load parses the FASTA file and stores sequences indexed by target name.
func (l *FASTALoader) Load() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseFASTA(reader)
}

// parseFASTA parses FASTA content. The target name is the header up to the
// first whitespace.
func (l *FASTALoader) parseFASTA(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var currentID string
	var currentSeq strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, ">") {
			if currentID != "" {
				l.sequences[currentID] = currentSeq.String()
			}
			currentID = parseHeader(line)
			if _, dup := l.sequences[currentID]; dup {
				return fmt.Errorf("duplicate FASTA record %q", currentID)
			}
			currentSeq.Reset()
		} else {
			currentSeq.WriteString(strings.TrimSpace(line))
		}
	}

	if currentID != "" {
		l.sequences[currentID] = currentSeq.String()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}

	return nil
}

// parseHeader extracts the record name from a FASTA header line.
func parseHeader(header string) string {
	header = strings.TrimPrefix(header, ">")
	if fields := strings.Fields(header); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// GetSequence returns the sequence for a target name, or "" if absent.
func (l *FASTALoader) GetSequence(name string) string {
	return l.sequences[name]
}

// SequenceCount returns the number of loaded sequences.
func (l *FASTALoader) SequenceCount() int {
	return len(l.sequences)
}

// HasSequence checks if a sequence exists for the given target name.
func (l *FASTALoader) HasSequence(name string) bool {
	_, ok := l.sequences[name]
	return ok
}
