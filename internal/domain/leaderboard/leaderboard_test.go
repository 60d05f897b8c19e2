package leaderboard_test

import (
	"testing"
	"time"

	leaderboard "github.com/okian/tagboard/internal/domain/leaderboard"
	model "github.com/okian/tagboard/internal/domain/model"
	scoring "github.com/okian/tagboard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func abcState() *scoring.State {
	roster := model.MustRoster("A", "B", "C")
	return scoring.Run(roster, scoring.NewRules(), []model.TagEvent{
		{At: t0, Player: "A"},
		{At: t0.Add(90 * time.Minute), Player: "B"},
		{At: t0.Add(120 * time.Minute), Player: "A"},
	})
}

func TestRank(t *testing.T) {
	Convey("Given a scored run with a tie", t, func() {
		entries := leaderboard.Rank(abcState())

		Convey("Then players are sorted by points with dense ranks", func() {
			So(len(entries), ShouldEqual, 3)
			So(entries[0].Player, ShouldEqual, model.Player("B"))
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[1].Player, ShouldEqual, model.Player("A"))
			So(entries[1].Rank, ShouldEqual, 2)
			So(entries[2].Player, ShouldEqual, model.Player("C"))
			So(entries[2].Rank, ShouldEqual, 2)
		})

		Convey("Then only the current holder is flagged", func() {
			So(entries[1].Holder, ShouldBeTrue)
			So(entries[0].Holder, ShouldBeFalse)
			So(entries[2].Holder, ShouldBeFalse)
		})

		Convey("Then ranks never skip after a tie", func() {
			for i := 1; i < len(entries); i++ {
				if entries[i].Points == entries[i-1].Points {
					So(entries[i].Rank, ShouldEqual, entries[i-1].Rank)
				} else {
					So(entries[i].Rank, ShouldEqual, entries[i-1].Rank+1)
				}
			}
		})
	})

	Convey("Given an empty run", t, func() {
		st := scoring.Run(model.MustRoster("A", "B"), scoring.NewRules(), nil)
		entries := leaderboard.Rank(st)

		Convey("Then everyone shares rank one", func() {
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[1].Rank, ShouldEqual, 1)
			So(entries[0].Player, ShouldEqual, model.Player("A"))
		})
	})
}

func TestAnalyze(t *testing.T) {
	Convey("Given the three-event run", t, func() {
		a := leaderboard.Analyze(abcState())

		Convey("Then catch extremes name both players and the gap", func() {
			So(a.FastestCatch, ShouldNotBeNil)
			So(a.FastestCatch.Caught, ShouldEqual, model.Player("B"))
			So(a.FastestCatch.Catcher, ShouldEqual, model.Player("A"))
			So(a.FastestCatch.Gap, ShouldEqual, 30*time.Minute)
			So(a.SlowestCatch.Caught, ShouldEqual, model.Player("A"))
			So(a.SlowestCatch.Catcher, ShouldEqual, model.Player("B"))
			So(a.SlowestCatch.Gap, ShouldEqual, 90*time.Minute)
		})

		Convey("Then player superlatives break ties by roster order", func() {
			So(a.Worst, ShouldEqual, model.Player("A"))
			So(a.WorstPoints, ShouldEqual, 35)
			So(a.Fastest, ShouldEqual, model.Player("C"))
			So(a.Slowest, ShouldEqual, model.Player("A"))
			So(a.SlowestHeld, ShouldEqual, 90*time.Minute)
			So(a.MostCaught, ShouldEqual, model.Player("A"))
		})

		Convey("Then the last caught player is reported", func() {
			So(a.LastCaught, ShouldNotBeNil)
			So(*a.LastCaught, ShouldEqual, model.Player("A"))
		})
	})

	Convey("Given a single-event run", t, func() {
		st := scoring.Run(model.MustRoster("A", "B"), scoring.NewRules(), []model.TagEvent{{At: t0, Player: "B"}})
		a := leaderboard.Analyze(st)

		Convey("Then catch facts have no data", func() {
			So(a.FastestCatch, ShouldBeNil)
			So(a.SlowestCatch, ShouldBeNil)
		})

		Convey("Then the only tagged player holds the tag", func() {
			So(a.LastCaught, ShouldNotBeNil)
			So(*a.LastCaught, ShouldEqual, model.Player("B"))
		})
	})
}
