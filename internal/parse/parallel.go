package parse

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-cs/internal/cstag"
)

// WorkItem holds a read record ready for processing.
type WorkItem struct {
	Seq    int
	Record *cstag.Record
	Err    error // read error for this record, passed through unprocessed
}

// WorkResult holds the feature results for a single read.
type WorkResult struct {
	Seq     int
	Record  *cstag.Record
	Results []*FeatureResult
	Err     error
}

// ParallelProcess processes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (p *Processor) ParallelProcess(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				r := WorkResult{Seq: item.Seq, Record: item.Record, Err: item.Err}
				if r.Err == nil {
					r.Results, r.Err = p.Process(item.Record)
				}
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
