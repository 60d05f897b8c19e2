package testevents

import (
	"fmt"

	"github.com/okian/tagboard/internal/domain/leaderboard"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
)

// Mismatch is a player whose served row disagrees with the local replay.
type Mismatch struct {
	Player   string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Player, m.Expected, m.Actual)
}

// Expected replays events locally with the default rules.
func Expected(roster []string, events []model.TagEvent) ([]leaderboard.Entry, error) {
	r, err := model.NewRoster(roster...)
	if err != nil {
		return nil, err
	}
	return leaderboard.Rank(scoring.Run(r, scoring.NewRules(), events)), nil
}

// Compare checks points, rank and catches per player. Holding time is not
// compared because the service keeps crediting the current holder.
func Compare(expected []leaderboard.Entry, actual []Entry) []Mismatch {
	served := make(map[string]Entry, len(actual))
	for _, e := range actual {
		served[e.Player] = e
	}

	var out []Mismatch
	for _, want := range expected {
		p := string(want.Player)
		got, ok := served[p]
		if !ok {
			out = append(out, Mismatch{Player: p, Expected: "a row", Actual: "none"})
			continue
		}
		w := fmt.Sprintf("rank %d, %d pts, %d catches", want.Rank, want.Points, want.Catches)
		g := fmt.Sprintf("rank %d, %d pts, %d catches", got.Rank, got.Points, got.Catches)
		if w != g {
			out = append(out, Mismatch{Player: p, Expected: w, Actual: g})
		}
		delete(served, p)
	}
	for p := range served {
		out = append(out, Mismatch{Player: p, Expected: "none", Actual: "a row"})
	}
	return out
}
