// Package config defines service configuration and its loading from
// defaults, an optional YAML file and TAGBOARD_* environment variables.
package config

import (
	"fmt"
	"time"
)

// DefaultRoster is the built-in player list, in display order.
var DefaultRoster = []string{
	"Tomas Magula",
	"Marek Magula",
	"Jakub Novak",
	"Marek Simko",
	"Jan Brecka",
	"Adam Sestak",
	"Janik Mokry",
	"Beno Drabek",
	"Pavol Nagy",
	"Marek Kossey",
	"Jakub Huscava",
	"Niko Matejov",
	"Radek Ciernik",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// PublicURL is the address players open; encoded into /qr.png.
	PublicURL string `koanf:"public_url"`

	// SourceURL is fetched over HTTP when SourcePath is empty.
	SourceURL string `koanf:"source_url"`
	// SourcePath reads the tag log from disk instead of SourceURL.
	SourcePath string `koanf:"source_path"`
	// FetchTimeoutMS bounds one fetch of the tag log.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`
	// ReloadIntervalMS re-fetches the log periodically; 0 fetches once at start.
	ReloadIntervalMS int `koanf:"reload_interval_ms"`

	// ReferenceYear completes the year-less dates of the log.
	ReferenceYear int `koanf:"reference_year"`
	// TimeZone is the IANA zone the log's wall times are recorded in.
	TimeZone string `koanf:"time_zone"`

	// Roster lists players in display and tie-break order.
	Roster []string `koanf:"roster"`

	// AwardSchedule is indexed by the caught player's holding rank.
	AwardSchedule []int `koanf:"award_schedule"`
	// PenaltyPerHour is subtracted per full hour held.
	PenaltyPerHour int `koanf:"penalty_per_hour"`
	// IsolationBonus is awarded per isolated untagged day.
	IsolationBonus int `koanf:"isolation_bonus"`

	// TickIntervalMS is the live accrual period.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// QueueSize bounds the writer task queue.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize caps remembered event keys.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RateLimitRPS and RateLimitBurst throttle the write endpoints.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		PublicURL:           "http://localhost:9080/",
		SourceURL:           "https://magula12.github.io/tag/tag.csv",
		FetchTimeoutMS:      10_000,
		ReloadIntervalMS:    0,
		ReferenceYear:       2025,
		TimeZone:            "UTC",
		Roster:              append([]string(nil), DefaultRoster...),
		AwardSchedule:       []int{50, 40, 30, 20, 10, 5},
		PenaltyPerHour:      5,
		IsolationBonus:      35,
		TickIntervalMS:      1000,
		QueueSize:           1024,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		RateLimitRPS:        5,
		RateLimitBurst:      10,
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SourceURL == "" && c.SourcePath == "":
		return fmt.Errorf("%w: one of source_url or source_path is required", ErrInvalidConfig)
	case len(c.Roster) == 0:
		return fmt.Errorf("%w: roster must not be empty", ErrInvalidConfig)
	case c.ReferenceYear < 1:
		return fmt.Errorf("%w: reference_year must be positive", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.PenaltyPerHour < 0 || c.IsolationBonus < 0:
		return fmt.Errorf("%w: penalty_per_hour and isolation_bonus must not be negative", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time_zone %q: %v", ErrInvalidConfig, c.TimeZone, err)
	}
	return loc, nil
}

// TickInterval is TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// ReloadInterval is ReloadIntervalMS as a duration.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.ReloadIntervalMS) * time.Millisecond
}

// FetchTimeout is FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}
