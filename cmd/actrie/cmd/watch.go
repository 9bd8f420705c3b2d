package cmd

import (
	"bufio"
	"fmt"

	"github.com/coregx/actrie"
	"github.com/coregx/actrie/reload"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "watch --dict FILE",
		Short: "Match stdin line by line, reloading the dictionary when it changes",
		Long: `Read stdin one line at a time and report the matches of each line as
line:start:end<TAB>keyword<TAB>extra. The dictionary file is watched and
recompiled whenever it changes; a broken edit keeps the previous version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config()
			if err != nil {
				return err
			}
			w, err := reload.New(path, reload.Options{
				Config: config,
				OnReload: func(m *actrie.Matcher, err error) {
					if err == nil {
						opts.logger.Debug("matcher swapped", "nodes", m.Stats().Nodes)
					}
				},
			})
			if err != nil {
				return err
			}
			defer w.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			sc := bufio.NewScanner(cmd.InOrStdin())
			sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
			for n := 1; sc.Scan(); n++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, m := range w.Matcher().FindAll(sc.Bytes()) {
					fmt.Fprintf(out, "%d:%d:%d\t%s\t%s\n", n, m.Start, m.End, m.Keyword, m.Extra)
				}
			}
			return sc.Err()
		},
	}
	cmd.Flags().StringVarP(&path, "dict", "d", "", "dictionary file")
	_ = cmd.MarkFlagRequired("dict")
	return cmd
}
