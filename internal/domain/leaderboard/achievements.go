package leaderboard

import (
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
)

// Catch is one adjacent pair in the log: Caught held the tag for Gap
// before Catcher took it.
type Catch struct {
	Caught  model.Player
	Catcher model.Player
	Gap     time.Duration
	At      time.Time // when Catcher was tagged
}

// Achievements holds the superlatives of a run. Pointer fields are nil when
// there is no data for them.
type Achievements struct {
	Worst        model.Player // fewest points
	WorstPoints  int
	Fastest      model.Player // least time held
	FastestHeld  time.Duration
	Slowest      model.Player // most time held
	SlowestHeld  time.Duration
	MostCaught   model.Player
	MostCatches  int
	FastestCatch *Catch
	SlowestCatch *Catch
	LastCaught   *model.Player
}

// Analyze scans st and its sorted log. Ties go to the first player in roster order.
func Analyze(st *scoring.State) Achievements {
	var a Achievements

	standings := st.Standings()
	for i, s := range standings {
		if i == 0 || s.Points < a.WorstPoints {
			a.Worst, a.WorstPoints = s.Player, s.Points
		}
		if i == 0 || s.Holding < a.FastestHeld {
			a.Fastest, a.FastestHeld = s.Player, s.Holding
		}
		if i == 0 || s.Catches > a.MostCatches {
			a.MostCaught, a.MostCatches = s.Player, s.Catches
		}
	}

	if order := st.ByHolding(); len(order) > 0 {
		a.Slowest, a.SlowestHeld = order[0], st.Holding(order[0])
	}

	a.FastestCatch, a.SlowestCatch = catchExtremes(st.Events())

	if p, ok := st.LastCaught(); ok {
		a.LastCaught = &p
	}
	return a
}

// catchExtremes returns the shortest and longest gaps between adjacent events.
// The first pair wins ties.
func catchExtremes(events []model.TagEvent) (fastest, slowest *Catch) {
	for i := 1; i < len(events); i++ {
		prev, curr := events[i-1], events[i]
		c := Catch{Caught: prev.Player, Catcher: curr.Player, Gap: curr.At.Sub(prev.At), At: curr.At}
		if fastest == nil || c.Gap < fastest.Gap {
			f := c
			fastest = &f
		}
		if slowest == nil || c.Gap > slowest.Gap {
			s := c
			slowest = &s
		}
	}
	return fastest, slowest
}
