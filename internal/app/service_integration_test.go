package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/tagboard/internal/adapters/source"
	service "github.com/okian/tagboard/internal/app"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const abcCSV = `date,time,name
10.5.,9:00,A
10.5.,10:30,B
10.5.,11:00,A
10.5.,25:00,A
`

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

// stubFetcher serves a fixed document and can be switched to fail.
type stubFetcher struct {
	mu   sync.Mutex
	doc  source.Document
	fail error
}

func (f *stubFetcher) Fetch(_ context.Context) (source.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return source.Document{}, f.fail
	}
	return f.doc, nil
}

func (f *stubFetcher) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

// lateCancelCtx is live for its first Err check and cancelled from then on,
// so a caller's wait ends after its task was queued.
type lateCancelCtx struct {
	context.Context
	checks atomic.Int32
	done   chan struct{}
}

func newLateCancelCtx() *lateCancelCtx {
	done := make(chan struct{})
	close(done)
	return &lateCancelCtx{Context: context.Background(), done: done}
}

func (c *lateCancelCtx) Done() <-chan struct{} { return c.done }

func (c *lateCancelCtx) Err() error {
	if c.checks.Add(1) == 1 {
		return nil
	}
	return context.Canceled
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service reading the A/B/C log", t, func() {
		fetcher := &stubFetcher{doc: source.Document{Name: "tag.csv", Data: []byte(abcCSV)}}
		svc := service.New(
			service.WithRoster(model.MustRoster("A", "B", "C")),
			service.WithFetcher(fetcher),
			service.WithTickInterval(0),
			service.WithClock(func() time.Time { return t0.Add(3 * time.Hour) }),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the initial load completes", func() {
			entries, err := svc.TopN(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then the board is ranked densely by points", func() {
				want := []types.Entry{
					{Rank: 1, Player: "B", Points: 50, HoldingMS: (30 * time.Minute).Milliseconds(), Holding: "00:30:00", Catches: 1},
					{Rank: 2, Player: "A", Points: 35, HoldingMS: (90 * time.Minute).Milliseconds(), Holding: "01:30:00", Catches: 1, Holder: true},
					{Rank: 2, Player: "C", Points: 35, Holding: "00:00:00"},
				}
				So(cmp.Diff(want, entries), ShouldBeEmpty)
			})

			Convey("Then rank lookups and achievements agree", func() {
				e, err := svc.Rank(ctx, "A")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)

				ach := svc.Achievements(ctx)
				So(ach.Worst.Player, ShouldEqual, "A")
				So(ach.Slowest.Player, ShouldEqual, "A")
				So(ach.FastestCatch, ShouldNotBeNil)
				So(ach.FastestCatch.Caught, ShouldEqual, "B")
				So(ach.SlowestCatch.Caught, ShouldEqual, "A")
				So(*ach.LastCaught, ShouldEqual, "A")
			})

			Convey("Then the snapshot carries the run facts", func() {
				snap := svc.Snapshot()
				So(snap.RunID, ShouldNotBeEmpty)
				So(snap.Events, ShouldEqual, 3)
				So(snap.Days, ShouldEqual, 1)
				So(snap.Holder, ShouldEqual, "A")
			})
		})

		Convey("When a new tag is posted", func() {
			before := svc.Snapshot().Version
			res, err := svc.Append(ctx, []model.TagEvent{{At: t0.Add(150 * time.Minute), Player: "C"}})
			So(err, ShouldBeNil)

			Convey("Then it is folded into a fresh run", func() {
				So(res, ShouldResemble, types.AppendResult{Accepted: 1})
				So(svc.Snapshot().Version, ShouldBeGreaterThan, before)
				So(svc.Snapshot().Holder, ShouldEqual, "C")
				a, _ := svc.Rank(ctx, "A")
				So(a.Catches, ShouldEqual, 2)
			})

			Convey("Then posting it again is a duplicate", func() {
				res, err := svc.Append(ctx, []model.TagEvent{{At: t0.Add(150 * time.Minute), Player: "C"}})
				So(err, ShouldBeNil)
				So(res, ShouldResemble, types.AppendResult{Duplicates: 1})
			})
		})

		Convey("When a posted tag repeats a log row", func() {
			res, err := svc.Append(ctx, []model.TagEvent{{At: t0, Player: "A"}})

			Convey("Then it is dropped as a duplicate", func() {
				So(err, ShouldBeNil)
				So(res.Duplicates, ShouldEqual, 1)
				So(svc.Snapshot().Events, ShouldEqual, 3)
			})
		})

		Convey("When the caller stops waiting after its tag was queued", func() {
			tag := []model.TagEvent{{At: t0.Add(150 * time.Minute), Player: "C"}}
			_, err := svc.Append(newLateCancelCtx(), tag)
			if err != nil {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			}
			So(eventually(func() bool { return svc.Snapshot().Events == 4 }), ShouldBeTrue)

			Convey("Then a retry is a duplicate and the tag is scored once", func() {
				res, err := svc.Append(ctx, tag)
				So(err, ShouldBeNil)
				So(res, ShouldResemble, types.AppendResult{Duplicates: 1})
				So(svc.Snapshot().Events, ShouldEqual, 4)
			})
		})

		Convey("When a posted tag names an unknown player", func() {
			_, err := svc.Append(ctx, []model.TagEvent{{At: t0, Player: "Zed"}})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrUnknownPlayer), ShouldBeTrue)
			})
		})

		Convey("When a reload fails", func() {
			version := svc.Snapshot().Version
			fetcher.setFail(source.ErrFetch)
			err := svc.Reload(ctx)

			Convey("Then the previous state is kept", func() {
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
				So(svc.Snapshot().Version, ShouldEqual, version)
				So(svc.GetStats()["lastReloadError"], ShouldNotBeNil)
			})
		})
	})
}

func TestServiceLiveAccrual(t *testing.T) {
	Convey("Given a ticking service whose clock is one hour past the last tag", t, func() {
		fetcher := &stubFetcher{doc: source.Document{Name: "tag.csv", Data: []byte(abcCSV)}}
		svc := service.New(
			service.WithRoster(model.MustRoster("A", "B", "C")),
			service.WithFetcher(fetcher),
			service.WithTickInterval(10*time.Millisecond),
			service.WithClock(func() time.Time { return t0.Add(3 * time.Hour) }),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the holder accrues the elapsed time exactly once", func() {
			ok := eventually(func() bool {
				e, err := svc.Rank(ctx, "A")
				return err == nil && e.Holding == "02:30:00"
			})
			So(ok, ShouldBeTrue)

			time.Sleep(50 * time.Millisecond)
			e, _ := svc.Rank(ctx, "A")
			So(e.Holding, ShouldEqual, "02:30:00")
			So(e.Points, ShouldEqual, 35)
		})
	})
}

func TestServiceSubscribe(t *testing.T) {
	Convey("Given a subscriber on a started service", t, func() {
		svc := service.New(
			service.WithRoster(model.MustRoster("A", "B")),
			service.WithTickInterval(0),
		)
		ch, unsubscribe := svc.Subscribe()
		defer unsubscribe()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a tag is posted", func() {
			_, err := svc.Append(ctx, []model.TagEvent{{At: t0, Player: "A"}})
			So(err, ShouldBeNil)

			Convey("Then a snapshot with the event is pushed", func() {
				got := false
				timeout := time.After(2 * time.Second)
				for !got {
					select {
					case snap := <-ch:
						got = snap.Events == 1
					case <-timeout:
						So("no snapshot pushed", ShouldBeEmpty)
						return
					}
				}
				So(got, ShouldBeTrue)
			})
		})
	})
}

func TestServiceAppendZone(t *testing.T) {
	Convey("Given a service keeping days in a zone one hour east of UTC", t, func() {
		svc := service.New(
			service.WithRoster(model.MustRoster("A", "B")),
			service.WithLocation(time.FixedZone("CET", 60*60)),
			service.WithTickInterval(0),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When tags are posted in UTC either side of local midnight", func() {
			res, err := svc.Append(ctx, []model.TagEvent{
				{At: time.Date(2025, 3, 1, 22, 30, 0, 0, time.UTC), Player: "A"},
				{At: time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC), Player: "B"},
			})

			Convey("Then they fall on two local days", func() {
				So(err, ShouldBeNil)
				So(res.Accepted, ShouldEqual, 2)
				So(svc.Snapshot().Days, ShouldEqual, 2)
			})
		})
	})
}

func TestServiceRepeatedSourceRows(t *testing.T) {
	Convey("Given a source log that repeats a row", t, func() {
		const repeated = "date,time,name\n10.5.,9:00,A\n10.5.,9:00,A\n10.5.,10:30,B\n"
		svc := service.New(
			service.WithRoster(model.MustRoster("A", "B")),
			service.WithFetcher(&stubFetcher{doc: source.Document{Name: "tag.csv", Data: []byte(repeated)}}),
			service.WithTickInterval(0),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then every row is folded", func() {
			So(svc.Snapshot().Events, ShouldEqual, 3)
		})

		Convey("Then posting the repeated tag is a duplicate", func() {
			res, err := svc.Append(ctx, []model.TagEvent{{At: t0, Player: "A"}})
			So(err, ShouldBeNil)
			So(res, ShouldResemble, types.AppendResult{Duplicates: 1})
		})
	})
}
