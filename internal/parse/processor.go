// Package parse extracts per-feature cs results from aligned reads.
package parse

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-cs/internal/cstag"
	"github.com/inodb/vibe-cs/internal/target"
)

// Errors that classify reads which produce no results.
var (
	ErrUnknownTarget = errors.New("read aligned to unknown target")
	ErrFiltered      = errors.New("read filtered")
)

// FeatureResult is the part of one read covering one target feature.
type FeatureResult struct {
	QueryName   string
	QueryClip5  int
	QueryClip3  int
	Target      string
	Orientation string
	Feature     string
	CS          string
	Clip5       int    // feature bases before the alignment
	Clip3       int    // feature bases after the alignment
	Mutations   string // feature-relative, 1-based
	NtMutations int
	OpMutations int
	Sequence    string // query sequence of the feature, "" if the target sequence is unknown
}

// Options controls which reads are kept.
type Options struct {
	// MaxQueryClip filters reads with more unaligned query bases than this
	// at either end. Negative disables the filter.
	MaxQueryClip int
	// MaxFeatureClip filters reads that leave more than this many bases of
	// any overlapping feature unaligned. Negative disables the filter.
	MaxFeatureClip int
}

// DefaultOptions returns options with all filters disabled.
func DefaultOptions() Options {
	return Options{MaxQueryClip: -1, MaxFeatureClip: -1}
}

// Processor extracts feature results from alignment records.
type Processor struct {
	targets *target.Targets
	opts    Options
	logger  *zap.Logger
}

// NewProcessor creates a new processor for the given targets.
func NewProcessor(ts *target.Targets, opts Options) *Processor {
	return &Processor{
		targets: ts,
		opts:    opts,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (p *Processor) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Process returns one result per target feature the read overlaps, ordered
// by feature start.
func (p *Processor) Process(rec *cstag.Record) ([]*FeatureResult, error) {
	a, err := cstag.NewAlignment(*rec)
	if err != nil {
		return nil, err
	}

	t, ok := p.targets.Lookup(a.TargetName)
	if !ok {
		return nil, fmt.Errorf("%w: %s aligned to %q", ErrUnknownTarget, a.QueryName, a.TargetName)
	}

	if limit := p.opts.MaxQueryClip; limit >= 0 && (a.QueryClip5 > limit || a.QueryClip3 > limit) {
		return nil, fmt.Errorf("%w: %s query clips %d,%d exceed %d",
			ErrFiltered, a.QueryName, a.QueryClip5, a.QueryClip3, limit)
	}

	var results []*FeatureResult
	for _, f := range t.Overlapping(a.TargetClip5, a.TargetLastPos) {
		feat, ok, err := a.ExtractCS(f.Start, f.End)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		if !ok {
			continue
		}
		if limit := p.opts.MaxFeatureClip; limit >= 0 && (feat.Clip5 > limit || feat.Clip3 > limit) {
			return nil, fmt.Errorf("%w: %s feature %s clips %d,%d exceed %d",
				ErrFiltered, a.QueryName, f.Name, feat.Clip5, feat.Clip3, limit)
		}

		r := &FeatureResult{
			QueryName:   a.QueryName,
			QueryClip5:  a.QueryClip5,
			QueryClip3:  a.QueryClip3,
			Target:      t.Name,
			Orientation: a.Orientation,
			Feature:     f.Name,
			CS:          feat.CS.String(),
			Clip5:       feat.Clip5,
			Clip3:       feat.Clip3,
			Mutations:   feat.CS.MutationString(feat.Clip5),
			NtMutations: feat.CS.NtMutationCount(),
			OpMutations: feat.CS.OpMutationCount(),
		}
		if seq, ok := t.Subsequence(f.Start+feat.Clip5, f.End-feat.Clip3); ok {
			r.Sequence, err = feat.CS.Sequence(seq)
			if err != nil {
				return nil, fmt.Errorf("feature %s sequence: %w", f.Name, err)
			}
		}
		results = append(results, r)
	}

	return results, nil
}

// ResultWriter defines the interface for writing feature results.
type ResultWriter interface {
	WriteHeader() error
	Write(r *FeatureResult) error
	Flush() error
}
