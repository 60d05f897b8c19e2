package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
)

// RowError describes a dropped row.
type RowError struct {
	Line int
	Raw  string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Raw, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result is a parsed log: valid events in file order plus the rows that were dropped.
type Result struct {
	Events   []model.TagEvent
	Rejected []RowError
}

// Normalizer turns raw `d.m.`, `H:M`, name fields into a tag event.
// Dates carry no year, so ReferenceYear fills it in; wall times are read in Location.
type Normalizer struct {
	Roster        *model.Roster
	ReferenceYear int
	Location      *time.Location
}

// Event validates one row's fields.
func (n Normalizer) Event(date, clock, name string) (model.TagEvent, error) {
	day, month, err := parseDayMonth(date)
	if err != nil {
		return model.TagEvent{}, err
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return model.TagEvent{}, err
	}

	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	at := time.Date(n.ReferenceYear, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalises 31.2. into March; such dates are rejected.
	if at.Day() != day || int(at.Month()) != month {
		return model.TagEvent{}, fmt.Errorf("%w: %s", ErrBadDate, date)
	}

	p := model.Player(strings.TrimSpace(name))
	if n.Roster != nil && !n.Roster.Contains(p) {
		return model.TagEvent{}, fmt.Errorf("%w: %q", ErrUnknownPlayer, p)
	}
	return model.TagEvent{At: at, Player: p}, nil
}

// fields handles one record; header rows must be skipped by the caller.
func (n Normalizer) fields(line int, record []string, res *Result) {
	raw := strings.Join(record, ",")
	if len(record) < 3 {
		res.Rejected = append(res.Rejected, RowError{Line: line, Raw: raw, Err: ErrShortRow})
		return
	}
	ev, err := n.Event(record[0], record[1], record[2])
	if err != nil {
		res.Rejected = append(res.Rejected, RowError{Line: line, Raw: raw, Err: err})
		return
	}
	res.Events = append(res.Events, ev)
}

// parseDayMonth accepts "d.m." with or without the trailing dot.
func parseDayMonth(s string) (int, int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return day, month, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return hour, minute, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
