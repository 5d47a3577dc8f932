// Package aggregate computes windowed median statistics over the store.
//
// A whole aggregation runs against exactly one reference timestamp and
// one store snapshot. Evaluating users against drifting wall-clock
// instants would make the result order-dependent and non-reproducible.
package aggregate

import (
	"context"
	"sort"

	"github.com/medrift/medrift/internal/domain/model"
)

// SnapshotSource is the read surface the aggregator needs from the store.
type SnapshotSource interface {
	SnapshotAll(ctx context.Context) map[string][]model.ScoredPoint
	WindowSeconds() int64
}

// Median returns the median of values: the middle element for an odd
// count, the mean of the two middle elements for an even count. The
// input is not modified. ok is false for an empty input.
func Median(values []float64) (median float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// WindowMedian returns the median score of the points at or after
// cutoff. The window must be sorted by timestamp, so the qualifying
// points are a suffix. ok is false when nothing is in range.
func WindowMedian(window []model.ScoredPoint, cutoff int64) (median float64, ok bool) {
	idx := sort.Search(len(window), func(i int) bool { return window[i].Timestamp >= cutoff })
	if idx >= len(window) {
		return 0, false
	}

	scores := make([]float64, 0, len(window)-idx)
	for _, p := range window[idx:] {
		scores = append(scores, p.Score)
	}
	return Median(scores)
}

// MedianOfMedians computes the cross-user aggregate: each user's
// in-window median, then the median of those values. One cutoff and one
// snapshot cover the entire computation. ok is false when no user has
// any point within the window.
func MedianOfMedians(ctx context.Context, src SnapshotSource, referenceTS int64) (median float64, ok bool) {
	cutoff := referenceTS - src.WindowSeconds()
	snapshot := src.SnapshotAll(ctx)

	medians := make([]float64, 0, len(snapshot))
	for _, window := range snapshot {
		if m, found := WindowMedian(window, cutoff); found {
			medians = append(medians, m)
		}
	}

	return Median(medians)
}
