package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{">RecA_PacBio_amplicon", "RecA_PacBio_amplicon"},
		{">RecA_PacBio_amplicon  barcoded library", "RecA_PacBio_amplicon"},
		{">amp\tdesc", "amp"},
		{">", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHeader(tt.header))
		})
	}
}

func TestFASTALoader_ParseFASTA(t *testing.T) {
	fastaContent := `>amp1 first
ACGTACGT
ACGT
>amp2
GGGG
`

	loader := NewFASTALoader("")
	require.NoError(t, loader.parseFASTA(strings.NewReader(fastaContent)))

	assert.Equal(t, 2, loader.SequenceCount())
	assert.Equal(t, "ACGTACGTACGT", loader.GetSequence("amp1"))
	assert.Equal(t, "GGGG", loader.GetSequence("amp2"))
	assert.True(t, loader.HasSequence("amp2"))
	assert.False(t, loader.HasSequence("amp3"))
	assert.Equal(t, "", loader.GetSequence("amp3"))
}

func TestFASTALoader_Duplicate(t *testing.T) {
	loader := NewFASTALoader("")
	err := loader.parseFASTA(strings.NewReader(">a\nAC\n>a\nGT\n"))
	assert.Error(t, err)
}

func TestFASTALoader_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(">amp1\nACGT\nTT\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	loader := NewFASTALoader(path)
	require.NoError(t, loader.Load())
	assert.Equal(t, "ACGTTT", loader.GetSequence("amp1"))
}

func TestFASTALoader_Missing(t *testing.T) {
	err := NewFASTALoader("/nonexistent.fa").Load()
	assert.Error(t, err)
}
