package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	NumEvents     int           // Total number of events to generate
	NumUsers      int           // Number of distinct users to spread events over
	BatchSize     int           // Events per ingest request
	Workers       int           // Number of concurrent submitters
	Timeout       time.Duration // HTTP request timeout
	SampleMedians int           // Number of users to sample medians for after the run
	LogFile       string        // Log file for run output
	Verbose       bool          // Enable verbose logging
}

// Event mirrors the ingest wire format.
type Event struct {
	UserID    string    `json:"user_id"`
	Timestamp int64     `json:"timestamp"`
	Features  []float64 `json:"features"`
}

// AckResponse is the response from a batch submission.
type AckResponse struct {
	Status    string `json:"status"`
	Accepted  int    `json:"accepted"`
	BatchSize int    `json:"batch_size"`
}

// MedianResponse is the response from a per-user median query.
type MedianResponse struct {
	UserID string  `json:"user_id"`
	Median float64 `json:"median"`
}

// StatsResponse is the response from the stats endpoint.
type StatsResponse struct {
	IngestRequestsTotal  int64    `json:"ingest_requests_total"`
	EventsReceivedTotal  int64    `json:"events_received_total"`
	LastIngestTime       int64    `json:"last_ingest_time"`
	InferenceCallsTotal  int64    `json:"inference_calls_total"`
	QueueRejectionsTotal int64    `json:"queue_rejections_total"`
	MedianOfMedians      *float64 `json:"median_of_medians"`
}

// Stats holds load run statistics.
type Stats struct {
	EventsGenerated int
	BatchesSent     int
	EventsAccepted  int
	EventsRejected  int
	BatchesFailed   int
	MediansSampled  int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
