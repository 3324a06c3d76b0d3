// Package target loads amplicon targets and the features defined on them.
package target

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTargets is returned for target definitions that fail validation.
var ErrInvalidTargets = errors.New("invalid target definitions")

// Feature is a named region of a target in 0-based half-open coordinates.
type Feature struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// Length returns the length of the feature.
func (f Feature) Length() int {
	return f.End - f.Start
}

// Target is a reference sequence that reads are aligned to.
type Target struct {
	Name     string     `yaml:"name"`
	Sequence string     `yaml:"sequence,omitempty"`
	Features []*Feature `yaml:"features"`

	tree *IntervalTree
}

// Overlapping returns the features overlapping the target interval
// [start, end), ordered by feature start.
func (t *Target) Overlapping(start, end int) []*Feature {
	return t.tree.FindOverlaps(start, end)
}

// Feature returns the named feature, or nil.
func (t *Target) Feature(name string) *Feature {
	for _, f := range t.Features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Subsequence returns the target sequence in [start, end). ok is false when
// the sequence is unknown or too short.
func (t *Target) Subsequence(start, end int) (string, bool) {
	if start < 0 || end < start || end > len(t.Sequence) {
		return "", false
	}
	return t.Sequence[start:end], true
}

// Targets is a validated set of targets indexed by name.
type Targets struct {
	list   []*Target
	byName map[string]*Target
}

// file is the YAML layout of a targets file.
type file struct {
	FASTA   string    `yaml:"fasta,omitempty"`
	Targets []*Target `yaml:"targets"`
}

// Load reads a YAML targets file. A "fasta" entry is resolved relative to the
// YAML file and supplies sequences for targets that do not give one inline.
func Load(path string) (*Targets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Dir(path))
}

// Parse reads YAML target definitions from r. dir resolves a relative FASTA
// path.
func Parse(r io.Reader, dir string) (*Targets, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse targets: %w", err)
	}

	if doc.FASTA != "" {
		path := doc.FASTA
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		loader := NewFASTALoader(path)
		if err := loader.Load(); err != nil {
			return nil, fmt.Errorf("load target sequences: %w", err)
		}
		for _, t := range doc.Targets {
			if t.Sequence == "" && loader.HasSequence(t.Name) {
				t.Sequence = loader.GetSequence(t.Name)
			}
		}
	}

	return New(doc.Targets)
}

// New validates targets and indexes their features.
func New(targets []*Target) (*Targets, error) {
	ts := &Targets{byName: make(map[string]*Target, len(targets))}
	for _, t := range targets {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("%w: target without a name", ErrInvalidTargets)
		}
		if _, dup := ts.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate target %q", ErrInvalidTargets, t.Name)
		}
		if err := validate(t); err != nil {
			return nil, err
		}
		t.tree = BuildIntervalTree(t.Features)
		ts.byName[t.Name] = t
		ts.list = append(ts.list, t)
	}
	return ts, nil
}

func validate(t *Target) error {
	t.Sequence = strings.ToUpper(t.Sequence)
	seen := make(map[string]bool, len(t.Features))
	for _, f := range t.Features {
		if f == nil || f.Name == "" {
			return fmt.Errorf("%w: target %s has a feature without a name", ErrInvalidTargets, t.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: target %s has duplicate feature %q", ErrInvalidTargets, t.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Start < 0 || f.End <= f.Start {
			return fmt.Errorf("%w: feature %s/%s has interval [%d,%d)",
				ErrInvalidTargets, t.Name, f.Name, f.Start, f.End)
		}
		if t.Sequence != "" && f.End > len(t.Sequence) {
			return fmt.Errorf("%w: feature %s/%s ends at %d past target length %d",
				ErrInvalidTargets, t.Name, f.Name, f.End, len(t.Sequence))
		}
	}
	return nil
}

// Lookup returns the named target.
func (ts *Targets) Lookup(name string) (*Target, bool) {
	t, ok := ts.byName[name]
	return t, ok
}

// All returns the targets in definition order.
func (ts *Targets) All() []*Target {
	return ts.list
}

// Len returns the number of targets.
func (ts *Targets) Len() int {
	return len(ts.list)
}
