// Package scoring defines the contract for computing a score from an
// event's feature vector.
//
// The inference runtime itself is an external collaborator; the rest of
// the pipeline only depends on the narrow Scorer capability. The
// in-memory implementation stands in for a real model and can simulate
// model latency for load testing.
package scoring

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Default scoring configuration constants.
const (
	defaultBias  = 0.0
	defaultScale = 10.0
)

// Scorer computes a numeric score for a feature vector. Implementations
// must be safe for concurrent use by multiple workers.
type Scorer interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// Option applies a configuration option to the InMemoryScorer.
type Option func(*InMemoryScorer)

// WithWeights sets the per-dimension feature weights. Weights cycle when
// the feature vector is longer than the weight vector.
func WithWeights(weights []float64) Option {
	return func(s *InMemoryScorer) {
		if len(weights) > 0 {
			s.weights = append([]float64(nil), weights...)
		}
	}
}

// WithBias sets the additive bias applied before squashing.
func WithBias(bias float64) Option {
	return func(s *InMemoryScorer) {
		s.bias = bias
	}
}

// WithScale sets the output scale applied after squashing.
func WithScale(scale float64) Option {
	return func(s *InMemoryScorer) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithLatencyRange enables simulated inference latency between min and max.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *InMemoryScorer) {
		if minLatency > 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// InMemoryScorer is a deterministic stand-in for a trained model: a
// weighted feature sum squashed through tanh and scaled. Output is
// always finite for finite input.
type InMemoryScorer struct {
	weights    []float64
	bias       float64
	scale      float64
	minLatency time.Duration
	maxLatency time.Duration
}

// NewInMemoryScorer creates a scorer with configuration options.
func NewInMemoryScorer(opts ...Option) *InMemoryScorer {
	s := &InMemoryScorer{
		weights: []float64{0.4, -0.2, 0.7},
		bias:    defaultBias,
		scale:   defaultScale,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the score for one feature vector.
func (s *InMemoryScorer) Score(ctx context.Context, features []float64) (float64, error) {
	if len(features) == 0 {
		return 0, ErrEmptyFeatures
	}

	if s.maxLatency > 0 {
		if err := s.simulateLatency(ctx); err != nil {
			return 0, err
		}
	}

	sum := s.bias
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, ErrNonFiniteFeature
		}
		sum += f * s.weights[i%len(s.weights)]
	}

	return s.scale * math.Tanh(sum), nil
}

// simulateLatency sleeps for a random duration in the configured range,
// aborting early if the context is cancelled.
func (s *InMemoryScorer) simulateLatency(ctx context.Context) error {
	span := s.maxLatency - s.minLatency
	d := s.minLatency
	if span > 0 {
		d += time.Duration(rand.Int63n(int64(span))) //nolint:gosec // simulation only, not security sensitive
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
