package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whisper/chat-moderation/internal/matcher"
	"github.com/whisper/chat-moderation/internal/moderation"
	"github.com/whisper/chat-moderation/internal/sanitize"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <text>",
		Short: "Classify a sample message against the current table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			text := strings.Join(args, " ")
			log := newLogger(cmd.ErrOrStderr(), opts)

			m := matcher.New(matcher.Config{LUTPath: opts.out, LexiconPath: opts.lexicon}, log)
			d := m.Classify(text)

			fmt.Fprintf(w, "Text:       %q\n", text)
			fmt.Fprintf(w, "Normalized: %q\n", moderation.Normalize(text))
			fmt.Fprintf(w, "Mode:       %s\n", m.Stats().Mode)
			if d.Detected {
				fmt.Fprintf(w, "Egregious:  yes (method=%s term=%q evidence=%q)\n", d.Method, d.Term, d.Evidence)
			} else {
				fmt.Fprintln(w, "Egregious:  no")
			}

			if cleaned, profane := sanitize.Sanitize(sanitize.NewBasic(0), text); profane {
				fmt.Fprintf(w, "Profane:    yes (sanitized: %q)\n", cleaned)
			} else {
				fmt.Fprintln(w, "Profane:    no")
			}
			return nil
		},
	}
}
