package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("task queue full")
	ErrClosed = errors.New("task queue closed")
)
