package parse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-cs/internal/cstag"
	"github.com/inodb/vibe-cs/internal/samio"
)

// Stats counts what happened to the reads of a run.
type Stats struct {
	Records  int // records read
	Unmapped int
	Skipped  int // secondary and supplementary records
	Filtered int
	Failed   int // reads that could not be processed
	Rows     int // feature results written
}

// Run reads every record from reader, processes reads on workers goroutines
// and writes results to writer in input order. Per-read failures are logged
// and counted; only read, write and cancellation errors stop the run.
func (p *Processor) Run(ctx context.Context, reader samio.RecordReader, writer ResultWriter, workers int) (Stats, error) {
	var stats Stats

	if err := writer.WriteHeader(); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	items := make(chan WorkItem, 2*max(workers, 1))

	g.Go(func() error {
		defer close(items)
		for seq := 0; ; seq++ {
			rec, err := reader.Next()
			if err != nil && !errors.Is(err, samio.ErrMissingCS) && !errors.Is(err, samio.ErrNotPrimary) {
				return fmt.Errorf("read alignment: %w", err)
			}
			if rec == nil && err == nil {
				return nil
			}
			select {
			case items <- WorkItem{Seq: seq, Record: rec, Err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	results := p.ParallelProcess(items, workers)

	g.Go(func() error {
		return OrderedCollect(results, func(r WorkResult) error {
			stats.Records++
			if r.Err != nil {
				p.count(&stats, r)
				return nil
			}
			for _, res := range r.Results {
				if err := writer.Write(res); err != nil {
					return fmt.Errorf("write result: %w", err)
				}
				stats.Rows++
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	if stats.Records == 0 {
		p.logger.Info("0 alignments processed")
	}

	return stats, writer.Flush()
}

// count classifies a failed read.
func (p *Processor) count(stats *Stats, r WorkResult) {
	name := ""
	if r.Record != nil {
		name = r.Record.QueryName
	}
	switch {
	case errors.Is(r.Err, cstag.ErrUnmapped):
		stats.Unmapped++
	case errors.Is(r.Err, samio.ErrNotPrimary):
		stats.Skipped++
	case errors.Is(r.Err, ErrFiltered):
		stats.Filtered++
		p.logger.Debug("read filtered", zap.String("query", name), zap.Error(r.Err))
	default:
		stats.Failed++
		p.logger.Warn("failed to process read", zap.String("query", name), zap.Error(r.Err))
	}
}
