package model

import "time"

const secondsPerDay = 24 * 60 * 60

// Day is a calendar date expressed as days since 1970-01-01.
// The date is read from the instant's own location; no zone conversion happens.
type Day int64

// DayOf returns the calendar day of t as seen on t's wall clock.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Day(floorDiv(midnight.Unix(), secondsPerDay))
}

// Prev is the calendar day before d.
func (d Day) Prev() Day { return d - 1 }

// Next is the calendar day after d.
func (d Day) Next() Day { return d + 1 }

// Time returns UTC midnight of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// String formats d as YYYY-MM-DD.
func (d Day) String() string { return d.Time().Format(time.DateOnly) }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
