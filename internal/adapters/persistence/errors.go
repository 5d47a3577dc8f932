package persistence

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrCorruptSnapshot = errors.New("corrupt snapshot file")
)
