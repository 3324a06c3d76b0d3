package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-cs/internal/cstag"
)

func newCSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cs",
		Short: "Decode a single cs string",
		Example: `  vibe-cs cs split ':4*nt-tc:2+g:2'
  vibe-cs cs mutations --offset 10 ':4*nt-tc:2+g:2'
  vibe-cs cs count ':4*nt-tc:2+g:2'
  vibe-cs cs sequence ':4*nt-tc:2+g:2' CGGANTCCAAT
  vibe-cs cs extract --target-start 10 ':4*at-tc:2+ga:6' 12 16`,
	}

	cmd.AddCommand(newCSSplitCmd())
	cmd.AddCommand(newCSMutationsCmd())
	cmd.AddCommand(newCSCountCmd())
	cmd.AddCommand(newCSSequenceCmd())
	cmd.AddCommand(newCSExtractCmd())

	return cmd
}

func newCSSplitCmd() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "split <cs>",
		Short: "Print the operations of a cs string, one per line",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cstag.ParsePolicy(policy)
			if err != nil {
				return usageError{err}
			}
			s, ok, err := cstag.Split(args[0], p)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			for _, tok := range s.Tokens() {
				fmt.Fprintln(cmd.OutOrStdout(), tok)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policy, "invalid", "raise", "Invalid input policy: raise, ignore")
	return cmd
}

func newCSMutationsCmd() *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "mutations <cs>",
		Short: "Print the mutation string of a cs string",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := cstag.CSToMutationString(args[0], offset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Target bases before the first operation")
	return cmd
}

func newCSCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <cs>",
		Short: "Print nucleotide and operation mutation counts",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cstag.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nt_mutations\t%d\nop_mutations\t%d\n",
				s.NtMutationCount(), s.OpMutationCount())
			return nil
		},
	}
}

func newCSSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence <cs> <target>",
		Short: "Rebuild the query sequence from a cs string and the target it covers",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := cstag.CSToSequence(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), seq)
			return nil
		},
	}
}

func newCSExtractCmd() *cobra.Command {
	var targetStart int

	cmd := &cobra.Command{
		Use:   "extract <cs> <start> <end>",
		Short: "Print the part of an alignment covering target interval [start, end)",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError{fmt.Errorf("invalid start %q", args[1])}
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return usageError{fmt.Errorf("invalid end %q", args[2])}
			}

			s, err := cstag.Parse(args[0])
			if err != nil {
				return err
			}
			a, err := cstag.NewAlignment(cstag.Record{
				QueryName:   "query",
				TargetName:  "target",
				QueryLength: s.QueryLen(),
				QueryEnd:    s.QueryLen(),
				TargetStart: targetStart,
				TargetEnd:   targetStart + s.TargetLen(),
				CS:          args[0],
			})
			if err != nil {
				return err
			}

			f, ok, err := a.ExtractCS(start, end)
			if err != nil {
				return usageError{err}
			}
			if !ok {
				return fmt.Errorf("interval [%d,%d) does not overlap alignment [%d,%d)",
					start, end, a.TargetClip5, a.TargetLastPos)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cs\t%s\n", orDash(f.CS.String()))
			fmt.Fprintf(w, "clip5\t%d\nclip3\t%d\n", f.Clip5, f.Clip3)
			fmt.Fprintf(w, "mutations\t%s\n", orDash(f.CS.MutationString(f.Clip5)))
			return nil
		},
	}

	cmd.Flags().IntVar(&targetStart, "target-start", 0, "0-based target position of the alignment start")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
