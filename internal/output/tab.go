// Package output provides feature result formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-cs/internal/parse"
)

// Columns lists the tab-delimited output columns in order.
var Columns = []string{
	"query_name",
	"query_clip5",
	"query_clip3",
	"target",
	"orientation",
	"feature",
	"cs",
	"clip5",
	"clip3",
	"mutations",
	"n_nt_mutations",
	"n_op_mutations",
	"sequence",
}

// TabWriter writes feature results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: Columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single feature result. Empty text fields are written as "-".
func (tw *TabWriter) Write(r *parse.FeatureResult) error {
	values := []string{
		r.QueryName,
		strconv.Itoa(r.QueryClip5),
		strconv.Itoa(r.QueryClip3),
		r.Target,
		r.Orientation,
		r.Feature,
		orDash(r.CS),
		strconv.Itoa(r.Clip5),
		strconv.Itoa(r.Clip3),
		orDash(r.Mutations),
		strconv.Itoa(r.NtMutations),
		strconv.Itoa(r.OpMutations),
		orDash(r.Sequence),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
