// lutgen compiles the banned-term lexicon into the lookup table the
// moderator loads at startup.
package main

import (
	"os"

	"github.com/whisper/chat-moderation/cmd/lutgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
