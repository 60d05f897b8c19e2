package testevents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/pkg/logger"
)

// ErrMismatch is returned in strict mode when the served board disagrees
// with the local replay.
var ErrMismatch = errors.New("leaderboard mismatch")

// Run generates a log and, when BaseURL is set, posts it and verifies the
// served board.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	config.Normalize()
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}

	gen := NewGenerator(config.Seed, config.Year, time.UTC)
	roster := config.Roster
	if len(roster) == 0 {
		roster = gen.Roster(config.Players)
	}
	events := gen.Events(roster, config.Days, config.TagsPerDay, config.IdleRate)
	stats.EventsGenerated = len(events)
	log.Info(ctx, "generated tag log",
		logger.Int("players", len(roster)),
		logger.Int("days", config.Days),
		logger.Int("events", len(events)),
		logger.Int64("seed", config.Seed))

	if config.OutputFile != "" {
		if err := saveCSV(config.OutputFile, events); err != nil {
			return stats, fmt.Errorf("write log: %w", err)
		}
		log.Info(ctx, "tag log saved", logger.String("file", config.OutputFile))
	}

	if config.BaseURL != "" {
		if err := exercise(ctx, config, roster, events, stats); err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func exercise(ctx context.Context, config *Config, roster []string, events []model.TagEvent, stats *Stats) error {
	log := logger.Get()
	client := NewClient(config.BaseURL, config.Timeout)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	submitEvents(ctx, client, config, ToWire(events), stats)

	if config.Settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.Settle):
		}
	}

	board, err := client.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)

	want, err := Expected(roster, events)
	if err != nil {
		return fmt.Errorf("local replay: %w", err)
	}
	mismatches := Compare(want, board)
	stats.Mismatches = len(mismatches)
	for _, m := range mismatches {
		log.Warn(ctx, "leaderboard mismatch", logger.String("detail", m.String()))
	}
	if len(mismatches) > 0 && config.Strict {
		return fmt.Errorf("%w: %d players", ErrMismatch, len(mismatches))
	}
	if len(mismatches) == 0 {
		log.Info(ctx, "leaderboard matches local replay")
	}
	return nil
}

func saveCSV(path string, events []model.TagEvent) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, events, time.UTC); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration))
}
