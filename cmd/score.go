package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/okian/tagboard/internal/adapters/source"
	"github.com/okian/tagboard/internal/config"
	"github.com/okian/tagboard/internal/domain/leaderboard"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
	"github.com/okian/tagboard/internal/domain/types"
	"github.com/spf13/cobra"
)

// ErrBadInstant is returned when --as-of cannot be understood.
var ErrBadInstant = errors.New("unrecognised instant")

type scoreFlags struct {
	file   string
	asOf   string
	year   int
	zone   string
	asJSON bool
}

type scoreReport struct {
	AsOf         *time.Time         `json:"as_of,omitempty"`
	Events       int                `json:"events"`
	Rejected     int                `json:"rejected"`
	Entries      []types.Entry      `json:"entries"`
	Achievements types.Achievements `json:"achievements"`
}

func newScoreCmd() *cobra.Command {
	var f scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a tag log file and print the leaderboard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("year") {
				cfg.ReferenceYear = f.year
			}
			if cmd.Flags().Changed("time-zone") {
				cfg.TimeZone = f.zone
			}
			return score(cmd.Context(), cmd.OutOrStdout(), cfg, f, time.Now())
		},
	}

	fs := cmd.Flags()
	normalizeFlags(fs)
	fs.StringVarP(&f.file, "file", "f", "", "tag log to score (.csv, .txt or .xlsx)")
	fs.StringVar(&f.asOf, "as-of", "", `credit the holder up to this instant, e.g. "2025-05-12T18:00:00Z" or "yesterday 6pm"`)
	fs.IntVar(&f.year, "year", 0, "year the log's dates fall in (env: TAGBOARD_REFERENCE_YEAR)")
	fs.StringVar(&f.zone, "time-zone", "", "IANA zone of the log's wall times (env: TAGBOARD_TIME_ZONE)")
	fs.BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func score(ctx context.Context, out io.Writer, cfg *config.Config, f scoreFlags, now time.Time) error {
	roster, err := model.NewRoster(cfg.Roster...)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	doc, err := source.NewFileFetcher(f.file).Fetch(ctx)
	if err != nil {
		return err
	}
	norm := source.Normalizer{Roster: roster, ReferenceYear: cfg.ReferenceYear, Location: loc}
	res, err := source.NewFactory(norm).Parse(doc)
	if err != nil {
		return err
	}

	st := scoring.Run(roster, rulesFrom(cfg), res.Events)
	report := scoreReport{Events: len(st.Events()), Rejected: len(res.Rejected)}
	if f.asOf != "" {
		at, err := parseInstant(f.asOf, now.In(loc))
		if err != nil {
			return err
		}
		st.AdvanceTo(at)
		report.AsOf = &at
	}
	report.Entries = types.NewEntries(leaderboard.Rank(st))
	report.Achievements = types.NewAchievements(leaderboard.Analyze(st))

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, report, res.Rejected)
}

// parseInstant accepts RFC 3339 or an English phrase relative to now.
func parseInstant(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, now.Location()); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadInstant, s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadInstant, s)
	}
	return r.Time, nil
}

func printReport(out io.Writer, r scoreReport, rejected []source.RowError) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tPOINTS\tHOLDING\tCATCHES\t")
	for _, e := range r.Entries {
		mark := ""
		if e.Holder {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%d\t%s\t%d\t\n", e.Rank, e.Player, mark, e.Points, e.Holding, e.Catches)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d events", r.Events)
	if r.AsOf != nil {
		fmt.Fprintf(out, ", as of %s", r.AsOf.Format(time.RFC3339))
	}
	fmt.Fprintln(out)
	for _, rej := range rejected {
		fmt.Fprintf(out, "skipped %v\n", rej)
	}

	a := r.Achievements
	fmt.Fprintln(out)
	fmt.Fprintf(out, "worst:       %s (%d pts)\n", a.Worst.Player, a.Worst.Value)
	fmt.Fprintf(out, "fastest:     %s (%s)\n", a.Fastest.Player, a.Fastest.Label)
	fmt.Fprintf(out, "slowest:     %s (%s)\n", a.Slowest.Player, a.Slowest.Label)
	fmt.Fprintf(out, "most caught: %s (%d)\n", a.MostCaught.Player, a.MostCaught.Value)
	if c := a.FastestCatch; c != nil {
		fmt.Fprintf(out, "fastest catch: %s caught %s in %s\n", c.Catcher, c.Caught, c.Gap)
	}
	if c := a.SlowestCatch; c != nil {
		fmt.Fprintf(out, "slowest catch: %s caught %s after %s\n", c.Catcher, c.Caught, c.Gap)
	}
	if a.LastCaught != nil {
		fmt.Fprintf(out, "it:          %s\n", *a.LastCaught)
	}
	return nil
}
