// Package source fetches the tag log and parses it into tag events.
package source

import "errors"

// Sentinel error kinds for this package.
var (
	ErrFetch             = errors.New("fetch tag log failed")
	ErrUnsupportedFormat = errors.New("unsupported tag log format")
	ErrMalformedLog      = errors.New("malformed tag log")

	// Row-level kinds, carried by RowError.
	ErrShortRow      = errors.New("row has fewer than 3 fields")
	ErrMalformedRow  = errors.New("unreadable csv row")
	ErrBadDate       = errors.New("invalid day.month. date")
	ErrBadTime       = errors.New("invalid hour:minute time")
	ErrUnknownPlayer = errors.New("player not on roster")
)
