// Command tagboard serves a live leaderboard for a game of tag and scores
// tag logs offline.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const releaseVersion = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("tagboard: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tagboard",
		Short:         "Live scoring for a workplace game of tag.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}
	cmd.AddCommand(newServeCmd(), newScoreCmd())
	return cmd
}

// normalizeFlags lets --as_of and --as-of mean the same flag.
func normalizeFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}
