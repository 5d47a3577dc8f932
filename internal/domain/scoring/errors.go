package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrEmptyFeatures    = errors.New("empty feature vector")
	ErrNonFiniteFeature = errors.New("non-finite feature value")
)
