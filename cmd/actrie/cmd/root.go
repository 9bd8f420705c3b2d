// Package cmd implements the actrie command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/coregx/actrie"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/store"
	"github.com/spf13/cobra"
)

// options holds the flags shared by every subcommand.
type options struct {
	logLevel    string
	logJSON     bool
	kind        string
	maxGap      int
	noPrefilter bool
	strict      bool
	strictPat   bool

	logger *slog.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "actrie",
		Short:        "Multi-pattern keyword matcher",
		Long:         "Match dictionaries of literal keywords and bounded-gap patterns such as buy.{0,5}now against text.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logJSON)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&opts.kind, "kind", "distance", "matcher kind: distance or plain")
	pf.IntVar(&opts.maxGap, "max-gap", actrie.DefaultConfig().MaxGap, "cap on pattern gaps, in characters")
	pf.BoolVar(&opts.noPrefilter, "no-prefilter", false, "disable the whole-buffer prefilter")
	pf.BoolVar(&opts.strict, "strict", false, "reject dictionary keywords that are not valid UTF-8")
	pf.BoolVar(&opts.strictPat, "strict-patterns", false, "reject malformed gap patterns instead of matching them literally")

	root.AddCommand(newMatchCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newDumpCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	return root
}

// newLogger builds a text or JSON handler on w at the named level.
func newLogger(w io.Writer, level string, json bool) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	ho := &slog.HandlerOptions{Level: lv}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	}
	return slog.New(slog.NewTextHandler(w, ho)), nil
}

// config maps the shared flags onto an actrie.Config.
func (o *options) config() (actrie.Config, error) {
	kind, err := matcher.ParseKind(o.kind)
	if err != nil {
		return actrie.Config{}, err
	}
	config := actrie.DefaultConfig()
	config.Kind = kind
	config.MaxGap = o.maxGap
	config.EnablePrefilter = !o.noPrefilter
	config.StrictLines = o.strict
	config.StrictPatterns = o.strictPat
	config.Logger = o.logger
	return config, config.Validate()
}

// source selects where a dictionary comes from: a file, or a named entry in
// a store database.
type source struct {
	dict string
	db   string
	name string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.dict, "dict", "d", "", "dictionary file (.zst, .gz and .lz4 are decompressed)")
	cmd.Flags().StringVar(&s.db, "db", "", "dictionary database")
	cmd.Flags().StringVar(&s.name, "name", "", "dictionary name in --db")
	cmd.MarkFlagsMutuallyExclusive("dict", "db")
	cmd.MarkFlagsRequiredTogether("db", "name")
	cmd.MarkFlagsOneRequired("dict", "db")
}

// compile builds a matcher from the selected source.
func (s *source) compile(config actrie.Config) (*actrie.Matcher, error) {
	if s.dict != "" {
		return actrie.CompileFile(s.dict, config)
	}
	st, err := store.Open(s.db)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	d, err := st.Get(s.name)
	if err != nil {
		return nil, err
	}
	return actrie.CompileDict(d, config)
}
