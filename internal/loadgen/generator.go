package loadgen

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/medrift/medrift/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	profileDivisor     = 6
)

// Feature vector shape.
const (
	minFeatures = 1
	maxFeatures = 5
)

// Constants for feature value profiles. Each profile biases the raw
// feature values toward a different part of the range so the scored
// windows spread out rather than clustering around zero.
const (
	typicalMin   = -0.5
	typicalRange = 1.0
	strongMin    = 0.5
	strongRange  = 1.5
	weakMin      = -2.0
	weakRange    = 1.5
	spikeMin     = 2.0
	spikeRange   = 1.0
	dipMin       = -3.0
	dipRange     = 1.0
	wideMin      = -3.0
	wideRange    = 6.0
)

// Constants for profile cases.
const (
	caseTypical = 0
	caseStrong  = 1
	caseWeak    = 2
	caseSpike   = 3
	caseDip     = 4
	caseWide    = 5
)

// Timestamp spread: events land in the recent past so they are inside
// the service window when scored.
const timestampSpreadSeconds = 240

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n).
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateEvents creates the configured number of events spread over a
// fixed pool of generated user IDs.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]Event, []string, error) {
	logger.Get().Info(ctx, "generating events",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("numUsers", config.NumUsers))

	userIDs := make([]string, config.NumUsers)
	for i := range userIDs {
		userIDs[i] = "user_" + uuid.New().String()
	}

	now := time.Now().Unix()
	events := make([]Event, config.NumEvents)
	for i := range events {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		events[i] = Event{
			UserID:    userIDs[randomInt(int64(len(userIDs)))],
			Timestamp: now - randomInt(timestampSpreadSeconds),
			Features:  generateFeatures(),
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "generated events successfully", logger.Int("count", len(events)))

	return events, userIDs, nil
}

// generateFeatures builds a feature vector using a randomly picked
// value profile.
func generateFeatures() []float64 {
	count := minFeatures + int(randomInt(maxFeatures-minFeatures+1))
	features := make([]float64, count)
	for i := range features {
		features[i] = generateProfiledValue()
	}
	return features
}

// generateProfiledValue draws one feature value from a random profile.
func generateProfiledValue() float64 {
	switch randomInt(profileDivisor) {
	case caseTypical:
		return typicalMin + randomFloat()*typicalRange
	case caseStrong:
		return strongMin + randomFloat()*strongRange
	case caseWeak:
		return weakMin + randomFloat()*weakRange
	case caseSpike:
		return spikeMin + randomFloat()*spikeRange
	case caseDip:
		return dipMin + randomFloat()*dipRange
	case caseWide:
		return wideMin + randomFloat()*wideRange
	default:
		return wideMin + randomFloat()*wideRange
	}
}
