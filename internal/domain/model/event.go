// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
)

// Event represents one feature observation submitted by clients.
// Fields mirror the JSON schema for POST /ingest.
type Event struct {
	UserID    string    `json:"user_id"`
	Timestamp int64     `json:"timestamp"` // unix seconds
	Features  []float64 `json:"features"`
}

// ScoredPoint is one scored observation inside a user's window.
// It serializes as a two-element [timestamp, score] array so the
// snapshot file stays compact and stable across restarts.
type ScoredPoint struct {
	Timestamp int64
	Score     float64
}

// MarshalJSON encodes the point as [timestamp, score].
func (p ScoredPoint) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal([2]interface{}{p.Timestamp, p.Score})
	if err != nil {
		return nil, fmt.Errorf("marshal scored point: %w", err)
	}
	return b, nil
}

// UnmarshalJSON decodes a [timestamp, score] pair.
func (p *ScoredPoint) UnmarshalJSON(data []byte) error {
	var pair [2]json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("unmarshal scored point: %w", err)
	}
	ts, err := pair[0].Int64()
	if err != nil {
		return fmt.Errorf("unmarshal scored point timestamp: %w", err)
	}
	score, err := pair[1].Float64()
	if err != nil {
		return fmt.Errorf("unmarshal scored point score: %w", err)
	}
	p.Timestamp = ts
	p.Score = score
	return nil
}

// Stats is the read shape returned by GET /stats.
// MedianOfMedians is nil when no user has in-window data.
type Stats struct {
	IngestRequestsTotal  int64    `json:"ingest_requests_total"`
	EventsReceivedTotal  int64    `json:"events_received_total"`
	LastIngestTime       int64    `json:"last_ingest_time"`
	InferenceCallsTotal  int64    `json:"inference_calls_total"`
	QueueRejectionsTotal int64    `json:"queue_rejections_total"`
	MedianOfMedians      *float64 `json:"median_of_medians"`
}
