// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and env on top.
// - External errors are wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory admission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// WindowSeconds sets the per-user sliding window span.
	WindowSeconds int64 `koanf:"window_seconds"`

	// AdmitTimeoutMS is how long an enqueue waits for a free slot
	// before the event is rejected.
	AdmitTimeoutMS int `koanf:"admit_timeout_ms"`

	// StateFile is the snapshot path; empty disables persistence.
	StateFile string `koanf:"state_file"`

	// PersistIntervalSeconds is the periodic snapshot save interval.
	PersistIntervalSeconds int `koanf:"persist_interval_seconds"`

	// FeatureWeights configures the default in-memory scorer.
	FeatureWeights []float64 `koanf:"feature_weights"`

	// ScoreBias is the scorer's additive bias.
	ScoreBias float64 `koanf:"score_bias"`

	// ScoringLatencyMinMS and ScoringLatencyMaxMS simulate external
	// inference latency bounds; zero disables simulation.
	ScoringLatencyMinMS int `koanf:"scoring_latency_min_ms"`
	ScoringLatencyMaxMS int `koanf:"scoring_latency_max_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		QueueSize:              10_000,
		WorkerCount:            4,
		WindowSeconds:          300,
		AdmitTimeoutMS:         50,
		StateFile:              "data/state.json",
		PersistIntervalSeconds: 15,
		FeatureWeights:         []float64{0.4, -0.2, 0.7},
		ScoreBias:              0.0,
		ScoringLatencyMinMS:    0,
		ScoringLatencyMaxMS:    0,
	}
}
