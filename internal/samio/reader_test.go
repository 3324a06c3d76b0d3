package samio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-cs/internal/cstag"
)

const testSAM = "@HD\tVN:1.6\tSO:unsorted\n" +
	"@SQ\tSN:amplicon\tLN:40\n" +
	"read1\t0\tamplicon\t11\t60\t2S5M2D2M2I6M3S\t*\t0\t0\tNNACGTTCAGGTTTTTTNNN\t*\tcs:Z::4*at-tc:2+ga:6\n" +
	"read2\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t*\n" +
	"read3\t16\tamplicon\t1\t60\t4M\t*\t0\t0\tACGT\t*\n" +
	"read4\t16\tamplicon\t1\t60\t3H4M\t*\t0\t0\tACGT\t*\tcs:Z::4\n" +
	"read1\t2048\tamplicon\t31\t60\t15H5M\t*\t0\t0\tACGTA\t*\tcs:Z::5\n" +
	"read1\t256\tamplicon\t11\t0\t5M\t*\t0\t0\t*\t*\tcs:Z::5\n"

func TestReader_SAM(t *testing.T) {
	r, err := NewReader(strings.NewReader(testSAM), 1)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Header().Refs(), 1)

	rec, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, cstag.Record{
		QueryName:   "read1",
		TargetName:  "amplicon",
		QueryLength: 20,
		QueryStart:  2,
		QueryEnd:    17,
		TargetStart: 10,
		TargetEnd:   25,
		CS:          ":4*at-tc:2+ga:6",
	}, *rec)

	a, err := cstag.NewAlignment(*rec)
	require.NoError(t, err)
	assert.Equal(t, 2, a.QueryClip5)
	assert.Equal(t, 3, a.QueryClip3)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.True(t, rec.Unmapped)
	_, err = cstag.NewAlignment(*rec)
	assert.ErrorIs(t, err, cstag.ErrUnmapped)

	rec, err = r.Next()
	assert.ErrorIs(t, err, ErrMissingCS)
	require.NotNil(t, rec)
	assert.True(t, rec.Reverse)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, rec.QueryLength)
	assert.Equal(t, 0, rec.QueryStart)
	assert.Equal(t, 4, rec.QueryEnd)

	for _, flag := range []string{"supplementary", "secondary"} {
		rec, err = r.Next()
		assert.ErrorIs(t, err, ErrNotPrimary, flag)
		require.NotNil(t, rec)
		assert.Equal(t, "read1", rec.QueryName)
	}

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 6, r.Count())
}

func TestReader_BAM(t *testing.T) {
	sr, err := sam.NewReader(strings.NewReader(testSAM))
	require.NoError(t, err)

	var buf bytes.Buffer
	bw, err := bam.NewWriter(&buf, sr.Header(), 1)
	require.NoError(t, err)
	for {
		rec, err := sr.Read()
		if err != nil {
			break
		}
		require.NoError(t, bw.Write(rec))
	}
	require.NoError(t, bw.Close())

	r, err := NewReader(&buf, 1)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "read1", rec.QueryName)
	assert.Equal(t, ":4*at-tc:2+ga:6", rec.CS)
	assert.Equal(t, 25, rec.TargetEnd)
}

func TestQueryBounds(t *testing.T) {
	tests := []struct {
		cigar              string
		length, start, end int
	}{
		{"10M", 10, 0, 10},
		{"5S10M", 15, 5, 15},
		{"5H3S10M2I4S7H", 19, 3, 15},
		{"4S", 4, 4, 4},
	}
	for _, tt := range tests {
		c, err := sam.ParseCigar([]byte(tt.cigar))
		require.NoError(t, err)
		length, start, end := queryBounds(c)
		assert.Equal(t, tt.length, length, tt.cigar)
		assert.Equal(t, tt.start, start, tt.cigar)
		assert.Equal(t, tt.end, end, tt.cigar)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open("/nonexistent/reads.bam")
	assert.Error(t, err)
}
