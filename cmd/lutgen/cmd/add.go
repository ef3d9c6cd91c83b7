package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whisper/chat-moderation/internal/lexicon"
)

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <term>",
		Short: "Append a term to the lexicon",
		Long:  "Appends a term to the lexicon file. The lookup table is not rebuilt; run lutgen afterwards.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := lexicon.NewFile(opts.lexicon).Add(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if !res.Success {
				return errors.New(res.Message)
			}
			return nil
		},
	}
}
