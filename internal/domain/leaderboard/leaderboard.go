// Package leaderboard derives read-only views from a scoring state.
package leaderboard

import (
	"sort"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank    int
	Player  model.Player
	Points  int
	Holding time.Duration
	Catches int
	Holder  bool // currently "it"
}

// Rank orders players by points descending, ties kept in roster order,
// and assigns dense ranks. It does not mutate st.
func Rank(st *scoring.State) []Entry {
	holder, hasHolder := st.LastCaught()
	standings := st.Standings()

	entries := make([]Entry, len(standings))
	for i, s := range standings {
		entries[i] = Entry{
			Player:  s.Player,
			Points:  s.Points,
			Holding: s.Holding,
			Catches: s.Catches,
			Holder:  hasHolder && s.Player == holder,
		}
	}
	sortEntries(entries)
	assignDenseRanks(entries)
	return entries
}

// sortEntries sorts by points descending; the stable sort keeps roster order on ties.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
}

// assignDenseRanks gives equal points the same rank; the next distinct value
// gets the following rank.
func assignDenseRanks(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Points != entries[i-1].Points {
			rank++
		}
		entries[i].Rank = rank
	}
}
