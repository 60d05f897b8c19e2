package testevents

import "time"

// Generator bounds.
const (
	firstTagHour = 8
	lastTagHour  = 18
	startMonth   = 5
	startDay     = 1
)

// Defaults applied by Normalize.
const (
	DefaultPlayers    = 8
	DefaultDays       = 14
	DefaultTagsPerDay = 6
	DefaultIdleRate   = 0.2
	DefaultBatchSize  = 25
	DefaultTimeout    = 10 * time.Second
	DefaultSettle     = 2 * time.Second
)

const filePermission = 0o600
