package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/coregx/actrie"
	"github.com/coregx/actrie/utf8pos"
	"github.com/spf13/cobra"
)

func newMatchCmd(opts *options) *cobra.Command {
	var (
		src         source
		jobs        int
		asJSON      bool
		count       bool
		lineOffsets bool
	)
	cmd := &cobra.Command{
		Use:   "match [flags] [file...]",
		Short: "Report dictionary matches in files or stdin",
		Long: `Report every dictionary match in the given files, or in stdin when no
file is given. Offsets are character positions, end exclusive.

Output is one match per line: name:start:end<TAB>keyword<TAB>extra.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config()
			if err != nil {
				return err
			}
			m, err := src.compile(config)
			if err != nil {
				return err
			}
			defer m.Close()

			var names []string
			var bufs [][]byte
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				names, bufs = []string{"-"}, [][]byte{data}
			}
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				names = append(names, path)
				bufs = append(bufs, data)
			}

			results, err := m.FindAllBatch(cmd.Context(), bufs, jobs)
			if err != nil {
				return err
			}
			ps := m.PrefilterStats()
			opts.logger.Debug("scan complete",
				"files", len(bufs),
				"prefilter_checks", ps.Checks,
				"prefilter_rejects", ps.Rejects,
			)

			out := cmd.OutOrStdout()
			if count {
				for i, name := range names {
					fmt.Fprintf(out, "%s:%d\n", name, len(results[i]))
				}
				return nil
			}
			lines := make([][]lineMatch, len(bufs))
			for i := range bufs {
				if lineOffsets {
					lines[i] = byLine(bufs[i], results[i])
				} else {
					lines[i] = withoutLines(results[i])
				}
			}
			return writeMatches(out, names, lines, asJSON)
		},
	}
	src.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files scanned in parallel (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON lines")
	cmd.Flags().BoolVarP(&count, "count", "c", false, "print only the match count per file")
	cmd.Flags().BoolVar(&lineOffsets, "line-offsets", false, "report offsets relative to the start of their line (as line:start:end)")
	return cmd
}

// jsonMatch is the --json output record.
type jsonMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Keyword string `json:"keyword"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Extra   string `json:"extra,omitempty"`
	Tag     int    `json:"tag"`
}

// lineMatch is a match with an optional 1-based line number.
type lineMatch struct {
	actrie.Match
	line int
}

func writeMatches(w io.Writer, names []string, results [][]lineMatch, asJSON bool) error {
	enc := json.NewEncoder(w)
	for i, name := range names {
		for _, m := range results[i] {
			if asJSON {
				if err := enc.Encode(jsonMatch{
					File: name, Line: m.line, Keyword: m.Keyword,
					Start: m.Start, End: m.End, Extra: m.Extra, Tag: m.Tag,
				}); err != nil {
					return err
				}
				continue
			}
			prefix := name
			if m.line > 0 {
				prefix = fmt.Sprintf("%s:%d", name, m.line)
			}
			if _, err := fmt.Fprintf(w, "%s:%d:%d\t%s\t%s\n", prefix, m.Start, m.End, m.Keyword, m.Extra); err != nil {
				return err
			}
		}
	}
	return nil
}

func withoutLines(ms []actrie.Match) []lineMatch {
	out := make([]lineMatch, len(ms))
	for i, m := range ms {
		out[i] = lineMatch{Match: m}
	}
	return out
}

// byLine rebases every match onto the line it starts on.
func byLine(buf []byte, ms []actrie.Match) []lineMatch {
	pos := utf8pos.New(buf)
	starts := []int{0} // character offset of each line start
	for i, b := range buf {
		if b == '\n' {
			starts = append(starts, pos.Char(i+1))
		}
	}

	out := make([]lineMatch, len(ms))
	for i, m := range ms {
		line := sort.Search(len(starts), func(j int) bool { return starts[j] > m.Start }) - 1
		m.Start -= starts[line]
		m.End -= starts[line]
		out[i] = lineMatch{Match: m, line: line + 1}
	}
	return out
}
