// Command tag-sim generates seeded synthetic tag logs and replays them
// against a running tagboard service.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/tagboard/internal/config"
	"github.com/okian/tagboard/internal/testevents"
	"github.com/okian/tagboard/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const runTimeout = 10 * time.Minute

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Stderr.WriteString("tag-sim: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cfg := &testevents.Config{}
	var (
		synthetic bool
		logFormat string
	)

	cmd := &cobra.Command{
		Use:           "tag-sim",
		Short:         "Generate a synthetic tag log and verify a running service against it.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if !synthetic && len(cfg.Roster) == 0 {
				cfg.Roster = append([]string(nil), config.DefaultRoster...)
			}
			if synthetic {
				cfg.Roster = nil
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := testevents.Run(ctx, cfg)
			return err
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&cfg.BaseURL, "url", "", "service to post to, e.g. http://localhost:9080 (empty only writes the log)")
	fs.StringSliceVar(&cfg.Roster, "roster", nil, "players to tag (default: the service's default roster)")
	fs.BoolVar(&synthetic, "synthetic", false, "invent player names instead of using a roster")
	fs.IntVar(&cfg.Players, "players", testevents.DefaultPlayers, "number of invented players with --synthetic")
	fs.IntVar(&cfg.Days, "days", testevents.DefaultDays, "calendar days to cover")
	fs.IntVar(&cfg.TagsPerDay, "tags-per-day", testevents.DefaultTagsPerDay, "most tags on one day")
	fs.Float64Var(&cfg.IdleRate, "idle-rate", testevents.DefaultIdleRate, "chance that a day has no tags")
	fs.IntVar(&cfg.Year, "year", time.Now().Year(), "year of the generated dates")
	fs.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "generator seed")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "concurrent posters")
	fs.IntVar(&cfg.BatchSize, "batch", testevents.DefaultBatchSize, "events per request")
	fs.DurationVar(&cfg.Timeout, "timeout", testevents.DefaultTimeout, "HTTP request timeout")
	fs.DurationVar(&cfg.Settle, "settle", testevents.DefaultSettle, "wait before reading the leaderboard")
	fs.StringVarP(&cfg.OutputFile, "output", "o", "", "write the generated log as CSV")
	fs.BoolVar(&cfg.Strict, "strict", false, "exit non-zero when the served board differs from the replay")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every failed batch")
	fs.StringVar(&logFormat, "log-format", "text", "text or json")
	return cmd
}
