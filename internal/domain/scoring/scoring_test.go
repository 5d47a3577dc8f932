package scoring_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/medrift/medrift/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryScorer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scorer with default options", t, func() {
		s := scoring.NewInMemoryScorer()

		Convey("When scoring a feature vector", func() {
			score, err := s.Score(ctx, []float64{0.1, 0.2, 0.3})

			Convey("Then the score should be finite", func() {
				So(err, ShouldBeNil)
				So(math.IsNaN(score), ShouldBeFalse)
				So(math.IsInf(score, 0), ShouldBeFalse)
			})

			Convey("And scoring is deterministic", func() {
				again, err := s.Score(ctx, []float64{0.1, 0.2, 0.3})
				So(err, ShouldBeNil)
				So(again, ShouldEqual, score)
			})
		})

		Convey("When the feature vector is empty", func() {
			_, err := s.Score(ctx, nil)

			Convey("Then it should return ErrEmptyFeatures", func() {
				So(err, ShouldEqual, scoring.ErrEmptyFeatures)
			})
		})

		Convey("When a feature is non-finite", func() {
			_, err := s.Score(ctx, []float64{0.1, math.NaN()})

			Convey("Then it should return ErrNonFiniteFeature", func() {
				So(err, ShouldEqual, scoring.ErrNonFiniteFeature)
			})
		})
	})

	Convey("Given a scorer with custom weights and scale", t, func() {
		s := scoring.NewInMemoryScorer(
			scoring.WithWeights([]float64{1.0}),
			scoring.WithBias(0.0),
			scoring.WithScale(2.0),
		)

		Convey("When scoring a known vector", func() {
			score, err := s.Score(ctx, []float64{0.5})

			Convey("Then the score should match tanh(0.5)*2", func() {
				So(err, ShouldBeNil)
				So(score, ShouldAlmostEqual, 2.0*math.Tanh(0.5), 1e-12)
			})
		})

		Convey("And extreme inputs stay within the output scale", func() {
			score, err := s.Score(ctx, []float64{1e12})
			So(err, ShouldBeNil)
			So(math.Abs(score), ShouldBeLessThanOrEqualTo, 2.0)
		})
	})

	Convey("Given a scorer with simulated latency", t, func() {
		s := scoring.NewInMemoryScorer(
			scoring.WithLatencyRange(5*time.Millisecond, 10*time.Millisecond),
		)

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.Score(cancelled, []float64{0.1})

			Convey("Then scoring should abort with the context error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When scoring normally", func() {
			start := time.Now()
			_, err := s.Score(ctx, []float64{0.1})

			Convey("Then it should take at least the minimum latency", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 5*time.Millisecond)
			})
		})
	})
}
