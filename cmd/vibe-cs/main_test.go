package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-cs/internal/cstag"
	"github.com/inodb/vibe-cs/internal/duckdb"
)

const testTargetsYAML = `targets:
  - name: amp
    sequence: AAAACCCCGGGGTTTTACGTACGTCCGGAA
    features:
      - {name: barcode, start: 0, end: 8}
      - {name: gene, start: 8, end: 24}
      - {name: umi, start: 24, end: 30}
`

const testSAM = "@HD\tVN:1.6\tSO:unsorted\n" +
	"@SQ\tSN:amp\tLN:30\n" +
	"read1\t0\tamp\t3\t60\t22M2I6M\t*\t0\t0\tAACCCCGGAGTTTTACGTACGTTTCCGGAA\t*\tcs:Z::8*ga:13+tt:6\n" +
	"read2\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t*\n" +
	"read1\t2048\tamp\t9\t60\t20H10M\t*\t0\t0\tGGGGTTTTAC\t*\tcs:Z::10\n"

// execute runs the CLI with an isolated home directory and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeInputs(t *testing.T) (targets, sam string) {
	t.Helper()
	dir := t.TempDir()
	targets = filepath.Join(dir, "targets.yaml")
	sam = filepath.Join(dir, "reads.sam")
	require.NoError(t, os.WriteFile(targets, []byte(testTargetsYAML), 0644))
	require.NoError(t, os.WriteFile(sam, []byte(testSAM), 0644))
	return targets, sam
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vibe-cs version dev")
}

func TestCSSplit(t *testing.T) {
	out, err := execute(t, "cs", "split", ":32*nt-gga+aaa")
	require.NoError(t, err)
	assert.Equal(t, ":32\n*nt\n-gga\n+aaa\n", out)

	_, err = execute(t, "cs", "split", "bad:32")
	assert.Error(t, err)
	assert.False(t, isUsageError(err))

	out, err = execute(t, "cs", "split", "--invalid", "ignore", "bad:32")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, "cs", "split", "--invalid", "warn", ":5")
	assert.True(t, isUsageError(err))
}

func TestCSMutationsAndCount(t *testing.T) {
	out, err := execute(t, "cs", "mutations", "--offset", "2", ":4*at-tc:2+ga:6")
	require.NoError(t, err)
	assert.Equal(t, "A7T del8to9 ins12GA\n", out)

	out, err = execute(t, "cs", "count", ":4*nt-tc:2+g")
	require.NoError(t, err)
	assert.Equal(t, "nt_mutations\t3\nop_mutations\t2\n", out)
}

func TestCSSequence(t *testing.T) {
	out, err := execute(t, "cs", "sequence", ":4*nt-tc:2+g:2", "CGGANTCCAAT")
	require.NoError(t, err)
	assert.Equal(t, "CGGATCAGAT\n", out)
}

func TestCSExtract(t *testing.T) {
	out, err := execute(t, "cs", "extract", "--target-start", "10", ":4*at-tc:2+ga:6", "12", "16")
	require.NoError(t, err)
	assert.Equal(t, "cs\t:2*at-t\nclip5\t0\nclip3\t0\nmutations\tA3T del4to4\n", out)

	_, err = execute(t, "cs", "extract", ":4", "10", "20")
	assert.Error(t, err)

	_, err = execute(t, "cs", "extract", ":4", "x", "2")
	assert.True(t, isUsageError(err))

	_, err = execute(t, "cs", "extract", "--target-start", "-5", ":4", "0", "2")
	assert.ErrorIs(t, err, cstag.ErrInvalidRecord)
}

func TestUsageErrors(t *testing.T) {
	_, err := execute(t, "cs", "split")
	assert.True(t, isUsageError(err))

	_, err = execute(t, "parse", "--no-such-flag", "x.sam")
	assert.True(t, isUsageError(err))

	_, err = execute(t, "parse", "x.sam")
	assert.True(t, isUsageError(err), "missing --targets")

	_, err = execute(t, "parse", "-t", "targets.yaml", "--profile", "gpu", "x.sam")
	assert.True(t, isUsageError(err))
}

func TestParse_Tab(t *testing.T) {
	targets, sam := writeInputs(t)

	out, err := execute(t, "parse", "--targets", targets, "-j", "2", sam)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "query_name\t"))
	assert.Equal(t, "read1\t0\t0\tamp\t+\tbarcode\t:6\t2\t0\t-\t0\t0\tAACCCC", lines[1])
	assert.Equal(t, "read1\t0\t0\tamp\t+\tgene\t:2*ga:13+tt\t0\t0\tG3A ins17TT\t3\t2\tGGAGTTTTACGTACGTTT", lines[2])
	assert.Equal(t, "read1\t0\t0\tamp\t+\tumi\t:6\t0\t0\t-\t0\t0\tCCGGAA", lines[3])
}

func TestParse_TabFile(t *testing.T) {
	targets, sam := writeInputs(t)
	outPath := filepath.Join(t.TempDir(), "features.tsv")

	out, err := execute(t, "parse", "-t", targets, "-o", outPath, sam)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}

func TestParse_DuckDB(t *testing.T) {
	targets, sam := writeInputs(t)
	dbPath := filepath.Join(t.TempDir(), "results.duckdb")

	_, err := execute(t, "parse", "-t", targets, "-f", "duckdb", "-o", dbPath, sam)
	require.NoError(t, err)

	// A second run of the same input is skipped.
	_, err = execute(t, "parse", "-t", targets, "-f", "duckdb", "-o", dbPath, sam)
	require.NoError(t, err)

	s, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.LookupRead("read1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "G3A ins17TT", rows[1].Mutations)

	r, ok, err := s.LastRun(sam)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, r.Stats.Records)
	assert.Equal(t, 1, r.Stats.Unmapped)
	assert.Equal(t, 1, r.Stats.Skipped)
	assert.Equal(t, 3, r.Stats.Rows)
}

func TestParse_DuckDBForce(t *testing.T) {
	targets, sam := writeInputs(t)
	dbPath := filepath.Join(t.TempDir(), "results.duckdb")

	for _, extra := range [][]string{nil, {"--force"}, {"--force"}} {
		args := append([]string{"parse", "-t", targets, "-f", "duckdb", "-o", dbPath}, extra...)
		_, err := execute(t, append(args, sam)...)
		require.NoError(t, err)
	}

	s, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.LookupRead("read1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	counts, err := s.MutationCounts("amp", "gene")
	require.NoError(t, err)
	assert.Equal(t, []duckdb.MutationCount{{Mutations: "G3A ins17TT", Reads: 1}}, counts)

	n, err := s.CountInput(sam)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestParse_DuckDBChangedInput(t *testing.T) {
	targets, sam := writeInputs(t)
	dbPath := filepath.Join(t.TempDir(), "results.duckdb")

	_, err := execute(t, "parse", "-t", targets, "-f", "duckdb", "-o", dbPath, sam)
	require.NoError(t, err)

	// Drop read1: the input changes, so its old rows are replaced.
	lines := strings.SplitAfter(testSAM, "\n")
	require.NoError(t, os.WriteFile(sam, []byte(lines[0]+lines[1]+lines[3]), 0644))

	_, err = execute(t, "parse", "-t", targets, "-f", "duckdb", "-o", dbPath, sam)
	require.NoError(t, err)

	s, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.LookupRead("read1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_DuckDBNeedsOutput(t *testing.T) {
	targets, sam := writeInputs(t)
	_, err := execute(t, "parse", "-t", targets, "-f", "duckdb", sam)
	assert.True(t, isUsageError(err))
}

func TestConfig(t *testing.T) {
	viper.Reset()
	cfgFile = ""
	home := t.TempDir()
	t.Setenv("HOME", home)

	run := func(args ...string) string {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetArgs(args)
		require.NoError(t, root.Execute())
		return out.String()
	}

	out := run("config", "set", "workers", "8")
	assert.Contains(t, out, "Set workers = 8")
	assert.FileExists(t, filepath.Join(home, ".vibe-cs.yaml"))

	viper.Reset()
	out = run("config", "get", "workers")
	assert.Equal(t, "8\n", out)

	out = run("config")
	assert.Contains(t, out, "workers: 8")
}
