// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strconv"
	"time"
)

// Player is a roster member's display name. Names are matched exactly.
type Player string

// TagEvent records that Player became "it" at instant At.
type TagEvent struct {
	At     time.Time // wall-clock instant the tag happened
	Player Player    // the player who was caught
}

// Key returns an identity used to drop duplicate events.
// Two events with the same millisecond and player are considered the same tag.
func (e TagEvent) Key() string {
	return strconv.FormatInt(e.At.UnixMilli(), 10) + "|" + string(e.Player)
}

// Day returns the calendar day the event falls on.
func (e TagEvent) Day() Day { return DayOf(e.At) }

// SortLog orders events ascending by timestamp in place.
// Events sharing a timestamp keep their input order.
func SortLog(events []TagEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
}
