package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrNonFiniteScore = errors.New("scorer produced a non-finite score")
)
