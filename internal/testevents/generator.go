package testevents

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/okian/tagboard/internal/domain/model"
)

// Generator produces reproducible tag logs.
type Generator struct {
	faker *gofakeit.Faker
	year  int
	loc   *time.Location
}

// NewGenerator seeds a generator. Dates fall in year and are read in loc.
func NewGenerator(seed int64, year int, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{faker: gofakeit.New(uint64(seed)), year: year, loc: loc}
}

// Roster returns n distinct synthetic player names. Commas are stripped so
// names survive the CSV log format.
func (g *Generator) Roster(n int) []string {
	seen := make(map[string]struct{}, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := strings.ReplaceAll(g.faker.FirstName()+" "+g.faker.LastName(), ",", "")
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Events generates a log over days consecutive days starting 1 May. Each
// active day gets between one and perDay tags at distinct minutes between
// 08:00 and 18:00, and a player is never tagged twice in a row. Days are
// idle with probability idleRate, which leaves room for isolation bonuses.
func (g *Generator) Events(roster []string, days, perDay int, idleRate float64) []model.TagEvent {
	if len(roster) < 2 || days < 1 || perDay < 1 {
		return nil
	}
	start := time.Date(g.year, startMonth, startDay, 0, 0, 0, 0, g.loc)
	window := (lastTagHour - firstTagHour) * 60

	var (
		events []model.TagEvent
		prev   = -1
	)
	for d := 0; d < days; d++ {
		if g.faker.Float64Range(0, 1) < idleRate {
			continue
		}
		n := min(g.faker.Number(1, perDay), window)
		day := start.AddDate(0, 0, d)
		for _, m := range g.distinctMinutes(n, window) {
			p := g.faker.Number(0, len(roster)-1)
			for p == prev {
				p = g.faker.Number(0, len(roster)-1)
			}
			prev = p
			at := time.Date(day.Year(), day.Month(), day.Day(), firstTagHour, m, 0, 0, g.loc)
			events = append(events, model.TagEvent{At: at, Player: model.Player(roster[p])})
		}
	}
	return events
}

func (g *Generator) distinctMinutes(n, window int) []int {
	seen := make(map[int]struct{}, n)
	out := make([]int, 0, n)
	for len(out) < n {
		m := g.faker.Number(0, window-1)
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// WriteCSV writes events in the `date,time,name` log format with year-less
// `d.m.` dates and `H:MM` times in loc.
func WriteCSV(w io.Writer, events []model.TagEvent, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "time", "name"}); err != nil {
		return err
	}
	for _, e := range events {
		at := e.At.In(loc)
		row := []string{
			fmt.Sprintf("%d.%d.", at.Day(), int(at.Month())),
			fmt.Sprintf("%d:%02d", at.Hour(), at.Minute()),
			string(e.Player),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToWire converts events to the POST /events shape.
func ToWire(events []model.TagEvent) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = Event{Player: string(e.Player), TS: e.At.Format(time.RFC3339)}
	}
	return out
}
