package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-cs/internal/duckdb"
	"github.com/inodb/vibe-cs/internal/output"
	"github.com/inodb/vibe-cs/internal/parse"
	"github.com/inodb/vibe-cs/internal/samio"
	"github.com/inodb/vibe-cs/internal/target"
)

func newParseCmd() *cobra.Command {
	var (
		targetsPath string
		force       bool
		profileKind string
	)

	cmd := &cobra.Command{
		Use:   "parse [flags] <alignments>",
		Short: "Extract per-feature cs results from a SAM or BAM file",
		Long: `Reads alignments carrying a cs tag (minimap2 --cs) and writes one row per
read and overlapped target feature. Use '-' to read SAM or BAM from stdin.`,
		Example: `  vibe-cs parse --targets targets.yaml reads.bam
  vibe-cs parse --targets targets.yaml -o features.tsv reads.sam
  vibe-cs parse --targets targets.yaml --format duckdb -o results.duckdb reads.bam
  minimap2 -a --cs ref.fa reads.fq | vibe-cs parse --targets targets.yaml -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetsPath == "" {
				return usageError{fmt.Errorf("--targets is required")}
			}
			stop, err := startProfile(profileKind)
			if err != nil {
				return err
			}
			defer stop()
			return runParse(cmd, targetsPath, args[0], force)
		},
	}

	cmd.Flags().StringVarP(&targetsPath, "targets", "t", "", "YAML target and feature definitions")
	cmd.Flags().StringP("format", "f", "tab", "Output format: tab, duckdb")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout; required for duckdb)")
	cmd.Flags().IntP("workers", "j", 0, "Worker goroutines (0 = all CPUs)")
	cmd.Flags().Int("max-query-clip", -1, "Filter reads with more unaligned query bases at either end (-1 disables)")
	cmd.Flags().Int("max-feature-clip", -1, "Filter reads leaving more feature bases unaligned (-1 disables)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-parse inputs already recorded in a duckdb output")
	cmd.Flags().StringVar(&profileKind, "profile", "", "Write a cpu, mem or block profile to the current directory")

	viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("output.path", cmd.Flags().Lookup("output"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("parse.max_query_clip", cmd.Flags().Lookup("max-query-clip"))
	viper.BindPFlag("parse.max_feature_clip", cmd.Flags().Lookup("max-feature-clip"))

	return cmd
}

// startProfile starts the named profile. The returned function stops it.
func startProfile(kind string) (func(), error) {
	opts := []func(*profile.Profile){profile.ProfilePath("."), profile.NoShutdownHook}
	switch strings.ToLower(kind) {
	case "":
		return func() {}, nil
	case "cpu":
		return profile.Start(append(opts, profile.CPUProfile)...).Stop, nil
	case "mem":
		return profile.Start(append(opts, profile.MemProfile)...).Stop, nil
	case "block":
		return profile.Start(append(opts, profile.BlockProfile)...).Stop, nil
	}
	return nil, usageError{fmt.Errorf("invalid profile %q", kind)}
}

func runParse(cmd *cobra.Command, targetsPath, inputPath string, force bool) error {
	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	targets, err := target.Load(targetsPath)
	if err != nil {
		return err
	}
	logger.Info("loaded targets", zap.String("path", targetsPath), zap.Int("targets", targets.Len()))

	opts := parse.Options{
		MaxQueryClip:   viper.GetInt("parse.max_query_clip"),
		MaxFeatureClip: viper.GetInt("parse.max_feature_clip"),
	}
	p := parse.NewProcessor(targets, opts)
	p.SetLogger(logger)

	format := viper.GetString("output.format")
	outPath := viper.GetString("output.path")

	var (
		writer parse.ResultWriter
		store  *duckdb.Store
		input  duckdb.FileFingerprint
	)
	switch format {
	case "tab":
		var out io.Writer = cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		writer = output.NewTabWriter(out)
	case "duckdb":
		if outPath == "" {
			return usageError{fmt.Errorf("--output is required for duckdb format")}
		}
		store, err = duckdb.Open(outPath)
		if err != nil {
			return err
		}
		defer store.Close()

		// Rows are keyed by the absolute input path; stdin is stored as "-".
		inputKey := inputPath
		if inputPath != "-" {
			if inputKey, err = filepath.Abs(inputPath); err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			input, err = duckdb.StatFile(inputKey)
			if err != nil {
				return fmt.Errorf("stat input: %w", err)
			}
			current, err := store.IsCurrent(input)
			if err != nil {
				return err
			}
			if current && !force {
				logger.Info("input already parsed, skipping (use --force to re-parse)",
					zap.String("input", inputPath), zap.String("output", outPath))
				return nil
			}
		}
		if err := store.ClearInput(inputKey); err != nil {
			return err
		}
		writer = duckdb.NewResultWriter(store, inputKey, duckdb.DefaultBatchSize)
	default:
		return usageError{fmt.Errorf("unknown output format %q", format)}
	}

	reader, err := samio.Open(inputPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	start := time.Now()
	stats, err := p.Run(cmd.Context(), reader, writer, viper.GetInt("workers"))
	if err != nil {
		return err
	}

	logger.Info("parse complete",
		zap.Int("records", stats.Records),
		zap.Int("unmapped", stats.Unmapped),
		zap.Int("skipped", stats.Skipped),
		zap.Int("filtered", stats.Filtered),
		zap.Int("failed", stats.Failed),
		zap.Int("rows", stats.Rows),
		zap.Duration("elapsed", time.Since(start)))

	if store != nil && input.Path != "" {
		return store.RecordRun(duckdb.Run{Input: input, Stats: stats, FinishedAt: time.Now()})
	}
	return nil
}
