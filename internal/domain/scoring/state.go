package scoring

import (
	"sort"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/ranking"
)

const noHolder = -1

// State accumulates per-player totals for one run. Every roster player has an
// entry from construction. A State has a single writer.
type State struct {
	roster *model.Roster
	rules  Rules

	points     []int
	catches    []int
	tagged     []map[model.Day]struct{}
	lastTag    []time.Time
	lastCaught int
	byHolding  *ranking.Index

	events      []model.TagEvent
	skipped     int
	transitions int
	bonuses     int
}

// Standing is a read-only copy of one player's totals.
type Standing struct {
	Player     model.Player
	Points     int
	Holding    time.Duration
	Catches    int
	TaggedDays int
	LastTag    time.Time
}

// NewState returns an all-zero state for roster.
func NewState(roster *model.Roster, rules Rules) *State {
	n := roster.Len()
	s := &State{
		roster:     roster,
		rules:      rules,
		points:     make([]int, n),
		catches:    make([]int, n),
		tagged:     make([]map[model.Day]struct{}, n),
		lastTag:    make([]time.Time, n),
		lastCaught: noHolder,
		byHolding:  ranking.NewIndex(n),
	}
	for i := range s.tagged {
		s.tagged[i] = make(map[model.Day]struct{})
	}
	return s
}

// Roster returns the roster the state was built for.
func (s *State) Roster() *model.Roster { return s.roster }

// Rules returns the rule set in effect.
func (s *State) Rules() Rules { return s.rules }

// Points returns p's points; zero for unknown players.
func (s *State) Points(p model.Player) int {
	if i, ok := s.roster.Index(p); ok {
		return s.points[i]
	}
	return 0
}

// Holding returns the total time p has been "it".
func (s *State) Holding(p model.Player) time.Duration {
	if i, ok := s.roster.Index(p); ok {
		return s.byHolding.Holding(i)
	}
	return 0
}

// Catches returns how many times p was caught and handed the tag on.
func (s *State) Catches(p model.Player) int {
	if i, ok := s.roster.Index(p); ok {
		return s.catches[i]
	}
	return 0
}

// TaggedOn reports whether p took part in a tag on day d.
func (s *State) TaggedOn(p model.Player, d model.Day) bool {
	i, ok := s.roster.Index(p)
	if !ok {
		return false
	}
	_, hit := s.tagged[i][d]
	return hit
}

// LastTag returns when p was last caught; zero time if never.
func (s *State) LastTag(p model.Player) time.Time {
	if i, ok := s.roster.Index(p); ok {
		return s.lastTag[i]
	}
	return time.Time{}
}

// LastCaught returns the current holder.
func (s *State) LastCaught() (model.Player, bool) {
	if s.lastCaught == noHolder {
		return "", false
	}
	return s.roster.At(s.lastCaught), true
}

// HoldingRank returns p's 1-based rank by holding time, ties by roster order.
func (s *State) HoldingRank(p model.Player) int {
	if i, ok := s.roster.Index(p); ok {
		return s.byHolding.Rank(i)
	}
	return 0
}

// ByHolding returns every player from most to least time held, ties in
// roster order.
func (s *State) ByHolding() []model.Player {
	order := s.byHolding.Ordered()
	out := make([]model.Player, len(order))
	for i, pos := range order {
		out[i] = s.roster.At(pos)
	}
	return out
}

// Events returns the sorted log the state was folded from.
func (s *State) Events() []model.TagEvent {
	return append([]model.TagEvent(nil), s.events...)
}

// Skipped counts events dropped because their player is not on the roster.
func (s *State) Skipped() int { return s.skipped }

// Transitions counts folded adjacent pairs.
func (s *State) Transitions() int { return s.transitions }

// BonusesAwarded counts isolation bonuses granted.
func (s *State) BonusesAwarded() int { return s.bonuses }

// Days returns the distinct calendar days present in the log, ascending.
func (s *State) Days() []model.Day {
	seen := make(map[model.Day]struct{}, len(s.events))
	days := make([]model.Day, 0)
	for _, e := range s.events {
		d := e.Day()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Standings returns every player's totals in roster order.
func (s *State) Standings() []Standing {
	out := make([]Standing, s.roster.Len())
	for i := range out {
		out[i] = Standing{
			Player:     s.roster.At(i),
			Points:     s.points[i],
			Holding:    s.byHolding.Holding(i),
			Catches:    s.catches[i],
			TaggedDays: len(s.tagged[i]),
			LastTag:    s.lastTag[i],
		}
	}
	return out
}

// TotalHolding sums holding time over all players.
func (s *State) TotalHolding() time.Duration {
	var total time.Duration
	for i := 0; i < s.roster.Len(); i++ {
		total += s.byHolding.Holding(i)
	}
	return total
}
