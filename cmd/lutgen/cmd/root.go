package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/whisper/chat-moderation/internal/config"
	"github.com/whisper/chat-moderation/internal/lexicon"
	"github.com/whisper/chat-moderation/internal/logging"
	"github.com/whisper/chat-moderation/internal/lut"
)

type options struct {
	lexicon   string
	out       string
	threshold float64
	logLevel  string
}

// NewRootCmd builds the lutgen command tree. Flag defaults come from the
// same environment the moderator reads.
func NewRootCmd(out io.Writer) *cobra.Command {
	defaults := config.FromEnv(logrus.New())
	opts := &options{}

	root := &cobra.Command{
		Use:   "lutgen",
		Short: "Generate the profanity lookup table",
		Long: "Reads the hate speech lexicon, expands every term into exact spellings, " +
			"normalized forms and evasion patterns, and writes the lookup table artifact.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.lexicon, "lexicon", defaults.LexiconPath, "lexicon file, one term per line")
	flags.StringVar(&opts.out, "out", defaults.LUTPath, "lookup table output path")
	flags.Float64Var(&opts.threshold, "threshold", defaults.Threshold, "largest normalized edit distance for near misses")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level")

	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

func newLogger(w io.Writer, opts *options) *logrus.Logger {
	return logging.NewWithOutput(w, opts.logLevel, "text")
}

func runGenerate(w io.Writer, opts *options) error {
	if opts.threshold <= 0 || opts.threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0,1)", opts.threshold)
	}
	log := newLogger(w, opts).WithField("component", "lutgen")

	rep, err := lut.Generate(opts.lexicon, opts.out, lut.Options{Threshold: opts.threshold}, log)
	if errors.Is(err, lexicon.ErrPlaceholderCreated) {
		fmt.Fprintf(w, "Lexicon not found. Created a placeholder at %s; add terms and run again.\n", opts.lexicon)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Generated %s\n", opts.out)
	fmt.Fprintf(w, "  terms:                 %d\n", rep.Terms)
	fmt.Fprintf(w, "  exact matches:         %d\n", rep.ExactMatches)
	fmt.Fprintf(w, "  substitution variants: %d\n", rep.SubstitutionVariants)
	fmt.Fprintf(w, "  similar variants:      %d\n", rep.SimilarVariants)
	fmt.Fprintf(w, "  normalized terms:      %d\n", rep.NormalizedTerms)
	fmt.Fprintf(w, "  regex patterns:        %d\n", rep.RegexPatterns)
	if rep.DroppedPatterns > 0 {
		fmt.Fprintf(w, "  dropped patterns:      %d\n", rep.DroppedPatterns)
	}
	return nil
}
