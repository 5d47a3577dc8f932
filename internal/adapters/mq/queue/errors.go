package queue

import "errors"

// Sentinel kinds for admission errors.
var (
	ErrCapacityExceeded = errors.New("admission queue full")
	ErrClosed           = errors.New("queue closed")
)
