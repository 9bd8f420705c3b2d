package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/store"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *options) *cobra.Command {
	var db, name string
	cmd := &cobra.Command{
		Use:   "import --db FILE [--name NAME] DICT",
		Short: "Store a dictionary file in a database",
		Long: `Parse a dictionary file and store it in a database under NAME, replacing
any previous version. NAME defaults to the file name without extensions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dict.LoadFile(args[0], dict.Options{Strict: opts.strict, Logger: opts.logger})
			if err != nil {
				return err
			}
			if name == "" {
				name = baseName(args[0])
			}

			st, err := store.Open(db)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Put(name, d); err != nil {
				return err
			}
			opts.logger.Info("dictionary imported", "name", name, "entries", d.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", name, d.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "dictionary database")
	cmd.Flags().StringVar(&name, "name", "", "dictionary name")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newDumpCmd(opts *options) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "dump --db FILE [NAME]",
		Short: "List stored dictionaries, or print one in dictionary format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(db)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				d, err := st.Get(args[0])
				if err != nil {
					return err
				}
				return dict.Write(out, d)
			}

			names, err := st.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				info, err := st.Stat(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%d\t%s\n", name, info.Entries, info.Imported.Format("2006-01-02T15:04:05Z"))
			}
			opts.logger.Debug("listed dictionaries", "count", len(names))
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "dictionary database")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// baseName strips the directory and every extension: "dir/words.txt.zst"
// becomes "words".
func baseName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}
