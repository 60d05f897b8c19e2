package testevents

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // service to post to; empty generates the log only
	Roster     []string      // players to tag; empty uses Players synthetic names
	Players    int           // number of synthetic players when Roster is empty
	Days       int           // calendar days to cover
	TagsPerDay int           // upper bound of tags on an active day
	IdleRate   float64       // chance that a day has no tags at all
	Year       int           // year of the generated dates
	Seed       int64         // faker seed; equal seeds give equal logs
	Workers    int           // concurrent posters
	BatchSize  int           // events per POST /events
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // wait between posting and reading the board
	OutputFile string        // CSV destination; empty skips writing
	Strict     bool          // fail on leaderboard mismatches instead of warning
	Verbose    bool
}

// Normalize fills zero fields with defaults.
func (c *Config) Normalize() {
	if c.Players < 2 {
		c.Players = DefaultPlayers
	}
	if c.Days < 1 {
		c.Days = DefaultDays
	}
	if c.TagsPerDay < 1 {
		c.TagsPerDay = DefaultTagsPerDay
	}
	if c.IdleRate < 0 || c.IdleRate >= 1 {
		c.IdleRate = DefaultIdleRate
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
}

// Event is the wire shape of POST /events.
type Event struct {
	Player string `json:"player"`
	TS     string `json:"ts"`
}

// Entry is the wire shape of a leaderboard row.
type Entry struct {
	Rank    int    `json:"rank"`
	Player  string `json:"player"`
	Points  int    `json:"points"`
	Holding string `json:"holding"`
	Catches int    `json:"catches"`
	Holder  bool   `json:"holder"`
}

// AppendResult is the response of POST /events.
type AppendResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

// Stats holds simulation statistics.
type Stats struct {
	EventsGenerated    int
	BatchesSubmitted   int
	BatchesFailed      int
	EventsAccepted     int
	EventsDuplicate    int
	LeaderboardEntries int
	Mismatches         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
