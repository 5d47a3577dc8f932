package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNoData = errors.New("no data in window")
)
