package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTargets = `
targets:
  - name: amp1
    sequence: acgtacgtacgtacgtacgtacgtacgt
    features:
      - {name: barcode, start: 0, end: 8}
      - {name: gene, start: 8, end: 24}
      - {name: umi, start: 20, end: 28}
  - name: amp2
    features:
      - {name: gene, start: 5, end: 50}
`

func TestParse(t *testing.T) {
	ts, err := Parse(strings.NewReader(testTargets), ".")
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Len())

	amp1, ok := ts.Lookup("amp1")
	require.True(t, ok)
	assert.Equal(t, "ACGTACGTACGTACGTACGTACGTACGT", amp1.Sequence)
	assert.Equal(t, []string{"gene", "umi"}, names(amp1.Overlapping(22, 30)))
	assert.Equal(t, 16, amp1.Feature("gene").Length())
	assert.Nil(t, amp1.Feature("missing"))

	seq, ok := amp1.Subsequence(0, 4)
	assert.True(t, ok)
	assert.Equal(t, "ACGT", seq)
	_, ok = amp1.Subsequence(20, 40)
	assert.False(t, ok)

	amp2, ok := ts.Lookup("amp2")
	require.True(t, ok)
	_, ok = amp2.Subsequence(5, 10)
	assert.False(t, ok, "no sequence known")

	_, ok = ts.Lookup("amp3")
	assert.False(t, ok)
	assert.Equal(t, "amp1", ts.All()[0].Name)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"duplicate target", "targets:\n  - {name: a}\n  - {name: a}\n"},
		{"unnamed target", "targets:\n  - {sequence: ACGT}\n"},
		{"duplicate feature", "targets:\n  - name: a\n    features:\n      - {name: f, start: 0, end: 2}\n      - {name: f, start: 2, end: 4}\n"},
		{"empty interval", "targets:\n  - name: a\n    features:\n      - {name: f, start: 4, end: 4}\n"},
		{"negative start", "targets:\n  - name: a\n    features:\n      - {name: f, start: -1, end: 4}\n"},
		{"past sequence end", "targets:\n  - name: a\n    sequence: ACGT\n    features:\n      - {name: f, start: 0, end: 5}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml), ".")
			assert.ErrorIs(t, err, ErrInvalidTargets)
		})
	}

	_, err := Parse(strings.NewReader("targets:\n  - {name: a, bogus: 1}\n"), ".")
	assert.Error(t, err, "unknown fields are rejected")
}

func TestLoad_WithFASTA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "amp.fa"), []byte(">amp1\nACGTACGTAC\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "targets.yaml"), []byte(
		"fasta: amp.fa\ntargets:\n  - name: amp1\n    features:\n      - {name: gene, start: 2, end: 10}\n"), 0o644))

	ts, err := Load(filepath.Join(dir, "targets.yaml"))
	require.NoError(t, err)
	amp1, _ := ts.Lookup("amp1")
	assert.Equal(t, "ACGTACGTAC", amp1.Sequence)
}
