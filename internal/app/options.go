package service

import (
	"time"

	repository "github.com/okian/tagboard/internal/adapters/repository"
	"github.com/okian/tagboard/internal/adapters/source"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
	"github.com/okian/tagboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRoster sets the players of the game. Required.
func WithRoster(r *model.Roster) Option {
	return func(s *Service) {
		s.roster = r
	}
}

// WithRules sets the scoring rules.
func WithRules(r scoring.Rules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithFetcher sets where the log is read from.
func WithFetcher(f source.Fetcher) Option {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithParser overrides the extension-based parser factory.
func WithParser(p LogParser) Option {
	return func(s *Service) {
		s.parser = p
	}
}

// WithStore sets the snapshot store readers are served from.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithQueueSize sets the maximum number of pending writer tasks.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithReferenceYear sets the year given to log rows, which carry none.
func WithReferenceYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.referenceYear = year
		}
	}
}

// WithLocation sets the zone log wall times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTickInterval sets how often the holder's time is advanced. Zero
// disables live accrual.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.tickInterval = d
		}
	}
}

// WithReloadInterval sets how often the log is re-fetched. Zero fetches once.
func WithReloadInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.reloadInterval = d
		}
	}
}

// WithClock replaces time.Now for ticks and snapshot stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
