package duckdb

import "github.com/inodb/vibe-cs/internal/parse"

// DefaultBatchSize is the number of results buffered before an append.
const DefaultBatchSize = 10000

// ResultWriter adapts a Store to parse.ResultWriter, appending the results of
// one input in batches.
type ResultWriter struct {
	store     *Store
	input     string
	batch     []*parse.FeatureResult
	batchSize int
}

// NewResultWriter creates a writer appending results of input to s.
// batchSize <= 0 uses DefaultBatchSize.
func NewResultWriter(s *Store, input string, batchSize int) *ResultWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ResultWriter{store: s, input: input, batchSize: batchSize}
}

// WriteHeader is a no-op; the schema is created when the store is opened.
func (w *ResultWriter) WriteHeader() error {
	return nil
}

// Write buffers r and appends the batch once it is full.
func (w *ResultWriter) Write(r *parse.FeatureResult) error {
	w.batch = append(w.batch, r)
	if len(w.batch) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush appends any buffered results.
func (w *ResultWriter) Flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	err := w.store.WriteFeatureResults(w.input, w.batch)
	w.batch = w.batch[:0]
	return err
}
