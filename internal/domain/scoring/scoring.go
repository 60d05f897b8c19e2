// Package scoring folds a tag log into per-player points and holding time.
//
// A run sorts the log, applies Transition to every adjacent pair of events
// and then awards isolation bonuses once. Between runs the current holder
// keeps accruing time through AdvanceTo.
package scoring

import (
	"time"

	"github.com/okian/tagboard/internal/domain/model"
)

// Run scores a whole log from scratch. The input slice is not modified.
// Events for players outside the roster are skipped and counted. The first
// player in the log holds the tag from their event until the first
// transition.
func Run(roster *model.Roster, rules Rules, events []model.TagEvent) *State {
	s := NewState(roster, rules)

	log := make([]model.TagEvent, 0, len(events))
	for _, e := range events {
		if !roster.Contains(e.Player) {
			s.skipped++
			continue
		}
		log = append(log, e)
	}
	model.SortLog(log)
	s.events = log

	if len(log) > 0 {
		first, _ := roster.Index(log[0].Player)
		s.lastTag[first] = log[0].At
		s.lastCaught = first
	}

	for i := 1; i < len(log); i++ {
		s.Transition(log[i-1], log[i])
	}
	s.AwardIsolationBonuses()
	return s
}

// Transition applies the tag passing from prev.Player to curr.Player.
// Steps run in a fixed order: prev accrues the gap, pays the hourly penalty
// and gains a catch; curr is awarded by prev's holding rank; both event days
// are marked; curr becomes the holder.
func (s *State) Transition(prev, curr model.TagEvent) {
	pi, ok := s.roster.Index(prev.Player)
	if !ok {
		return
	}
	ci, ok := s.roster.Index(curr.Player)
	if !ok {
		return
	}

	gap := curr.At.Sub(prev.At)
	if gap < 0 {
		gap = 0
	}

	s.byHolding.Set(pi, s.byHolding.Holding(pi)+gap)
	s.points[pi] -= int(gap/time.Hour) * s.rules.penaltyPerHour
	s.catches[pi]++

	s.points[ci] += s.rules.Award(s.byHolding.Rank(pi))

	s.tagged[pi][prev.Day()] = struct{}{}
	s.tagged[ci][curr.Day()] = struct{}{}

	s.lastTag[ci] = curr.At
	s.lastCaught = ci
	s.transitions++
}

// AwardIsolationBonuses grants the isolation bonus for every log day D and
// every player untagged on D-1, D and D+1. Neighbour days count whether or
// not they appear in the log. Call once per run.
func (s *State) AwardIsolationBonuses() {
	for _, d := range s.Days() {
		for i := range s.points {
			t := s.tagged[i]
			if _, hit := t[d]; hit {
				continue
			}
			if _, hit := t[d.Prev()]; hit {
				continue
			}
			if _, hit := t[d.Next()]; hit {
				continue
			}
			s.points[i] += s.rules.isolationBonus
			s.bonuses++
		}
	}
}

// AdvanceTo credits the current holder with the time between their last tag
// and at, then moves their last tag to at. It returns the credited duration.
// Instants at or before the last tag change nothing.
func (s *State) AdvanceTo(at time.Time) time.Duration {
	if s.lastCaught == noHolder {
		return 0
	}
	i := s.lastCaught
	elapsed := at.Sub(s.lastTag[i])
	if elapsed <= 0 {
		return 0
	}
	s.byHolding.Set(i, s.byHolding.Holding(i)+elapsed)
	s.lastTag[i] = at
	return elapsed
}
