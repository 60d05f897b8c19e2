// Package types contains the JSON shapes served by the API and pushed to live clients.
package types

import (
	"fmt"
	"time"

	"github.com/okian/tagboard/internal/domain/leaderboard"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank      int    `json:"rank"`
	Player    string `json:"player"`
	Points    int    `json:"points"`
	HoldingMS int64  `json:"holding_ms"`
	Holding   string `json:"holding"` // HH:MM:SS, hours unbounded
	Catches   int    `json:"catches"`
	Holder    bool   `json:"holder"`
}

// AppendResult reports what happened to posted events.
type AppendResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

// Catch is one adjacent pair of the log.
type Catch struct {
	Caught  string    `json:"caught"`
	Catcher string    `json:"catcher"`
	GapMS   int64     `json:"gap_ms"`
	Gap     string    `json:"gap"`
	At      time.Time `json:"at"`
}

// PlayerFact names a player with the value that made them stand out.
type PlayerFact struct {
	Player string `json:"player"`
	Value  int64  `json:"value"`
	Label  string `json:"label,omitempty"`
}

// Achievements is the superlatives view. Missing facts are omitted.
type Achievements struct {
	Worst        PlayerFact `json:"worst"`
	Fastest      PlayerFact `json:"fastest"`
	Slowest      PlayerFact `json:"slowest"`
	MostCaught   PlayerFact `json:"most_caught"`
	FastestCatch *Catch     `json:"fastest_catch,omitempty"`
	SlowestCatch *Catch     `json:"slowest_catch,omitempty"`
	LastCaught   *string    `json:"last_caught,omitempty"`
}

// FormatHolding renders d as HH:MM:SS. Hours may exceed 24.
func FormatHolding(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// NewEntries converts leaderboard rows.
func NewEntries(in []leaderboard.Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = Entry{
			Rank:      e.Rank,
			Player:    string(e.Player),
			Points:    e.Points,
			HoldingMS: e.Holding.Milliseconds(),
			Holding:   FormatHolding(e.Holding),
			Catches:   e.Catches,
			Holder:    e.Holder,
		}
	}
	return out
}

// NewAchievements converts the analyzer result.
func NewAchievements(a leaderboard.Achievements) Achievements {
	out := Achievements{
		Worst:        PlayerFact{Player: string(a.Worst), Value: int64(a.WorstPoints)},
		Fastest:      PlayerFact{Player: string(a.Fastest), Value: a.FastestHeld.Milliseconds(), Label: FormatHolding(a.FastestHeld)},
		Slowest:      PlayerFact{Player: string(a.Slowest), Value: a.SlowestHeld.Milliseconds(), Label: FormatHolding(a.SlowestHeld)},
		MostCaught:   PlayerFact{Player: string(a.MostCaught), Value: int64(a.MostCatches)},
		FastestCatch: newCatch(a.FastestCatch),
		SlowestCatch: newCatch(a.SlowestCatch),
	}
	if a.LastCaught != nil {
		p := string(*a.LastCaught)
		out.LastCaught = &p
	}
	return out
}

func newCatch(c *leaderboard.Catch) *Catch {
	if c == nil {
		return nil
	}
	return &Catch{
		Caught:  string(c.Caught),
		Catcher: string(c.Catcher),
		GapMS:   c.Gap.Milliseconds(),
		Gap:     FormatHolding(c.Gap),
		At:      c.At,
	}
}
