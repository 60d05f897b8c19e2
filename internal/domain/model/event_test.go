package model_test

import (
	"testing"
	"time"

	model "github.com/okian/tagboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSortLog(t *testing.T) {
	convey.Convey("Given an unordered tag log", t, func() {
		t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		events := []model.TagEvent{
			{At: t0.Add(2 * time.Hour), Player: "C"},
			{At: t0, Player: "A"},
			{At: t0.Add(time.Hour), Player: "B"},
			{At: t0.Add(time.Hour), Player: "D"},
		}

		convey.Convey("When it is sorted", func() {
			model.SortLog(events)

			convey.Convey("Then events are ascending and equal timestamps keep input order", func() {
				got := []model.Player{}
				for _, e := range events {
					got = append(got, e.Player)
				}
				convey.So(got, convey.ShouldResemble, []model.Player{"A", "B", "D", "C"})
			})
		})

		convey.Convey("When computing keys", func() {
			a := model.TagEvent{At: t0, Player: "A"}
			b := model.TagEvent{At: t0, Player: "A"}
			c := model.TagEvent{At: t0, Player: "B"}

			convey.Convey("Then the same instant and player share a key", func() {
				convey.So(a.Key(), convey.ShouldEqual, b.Key())
				convey.So(a.Key(), convey.ShouldNotEqual, c.Key())
			})
		})
	})
}

func TestDay(t *testing.T) {
	convey.Convey("Given instants on calendar days", t, func() {
		late := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
		early := time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)

		convey.Convey("Then consecutive dates are adjacent days", func() {
			convey.So(model.DayOf(early), convey.ShouldEqual, model.DayOf(late).Next())
			convey.So(model.DayOf(late), convey.ShouldEqual, model.DayOf(early).Prev())
			convey.So(model.DayOf(late).String(), convey.ShouldEqual, "2025-03-01")
		})

		convey.Convey("Then the wall date is used without zone conversion", func() {
			zone := time.FixedZone("UTC+2", 2*60*60)
			local := time.Date(2025, 3, 2, 1, 0, 0, 0, zone)
			convey.So(model.DayOf(local).String(), convey.ShouldEqual, "2025-03-02")
		})

		convey.Convey("Then month boundaries are crossed", func() {
			feb := time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC)
			mar := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			convey.So(model.DayOf(feb).Next(), convey.ShouldEqual, model.DayOf(mar))
		})

		convey.Convey("Then days before the epoch floor correctly", func() {
			old := time.Date(1969, 12, 31, 12, 0, 0, 0, time.UTC)
			convey.So(model.DayOf(old), convey.ShouldEqual, model.Day(-1))
			convey.So(model.DayOf(old).String(), convey.ShouldEqual, "1969-12-31")
		})
	})
}

func TestRoster(t *testing.T) {
	convey.Convey("Given roster names", t, func() {
		convey.Convey("When they are unique", func() {
			r, err := model.NewRoster("A", "B", "C")

			convey.Convey("Then declaration order is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Len(), convey.ShouldEqual, 3)
				i, ok := r.Index("C")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(i, convey.ShouldEqual, 2)
				convey.So(r.Contains("Z"), convey.ShouldBeFalse)
				convey.So(r.Players(), convey.ShouldResemble, []model.Player{"A", "B", "C"})
			})
		})

		convey.Convey("When a name repeats", func() {
			_, err := model.NewRoster("A", "A")
			convey.So(err, convey.ShouldWrap, model.ErrDuplicatePlayer)
		})

		convey.Convey("When empty or blank", func() {
			_, err := model.NewRoster()
			convey.So(err, convey.ShouldEqual, model.ErrEmptyRoster)
			_, err = model.NewRoster("A", " ")
			convey.So(err, convey.ShouldEqual, model.ErrBlankPlayer)
		})
	})
}
