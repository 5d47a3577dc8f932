package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medrift/medrift/pkg/logger"
)

// How long to let the workers drain the queue before sampling reads.
const drainDelay = 2 * time.Second

// Run executes a complete load run: generate, submit, sample, report.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("users", config.NumUsers),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	events, userIDs, err := generateEvents(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	if err := submitEvents(ctx, config, events, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for workers to drain the queue")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(drainDelay):
	}

	if err := sampleMedians(ctx, config, userIDs, stats); err != nil {
		return fmt.Errorf("median sampling failed: %w", err)
	}

	if err := reportServiceStats(ctx, config, stats); err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "load run completed")
	return nil
}

// checkServiceHealth verifies the service is up before generating load.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// sampleMedians queries per-user medians for a sample of the generated
// users. A 404 is expected for users whose events were all rejected or
// already evicted.
func sampleMedians(ctx context.Context, config *Config, userIDs []string, stats *Stats) error {
	sample := config.SampleMedians
	if sample > len(userIDs) {
		sample = len(userIDs)
	}
	if sample == 0 {
		return nil
	}

	client := newHTTPClient(config.Timeout)
	retrieved := 0

	for _, userID := range userIDs[:sample] {
		resp, err := client.Get(ctx, config.BaseURL+"/users/"+userID+"/median")
		if err != nil {
			return fmt.Errorf("failed to query median for %s: %w", userID, err)
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read median response: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var out MedianResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return fmt.Errorf("failed to parse median response: %w", err)
			}
			retrieved++
			if config.Verbose {
				logger.Get().Debug(ctx, "sampled median",
					logger.String("userID", out.UserID),
					logger.Float64("median", out.Median))
			}
		case http.StatusNotFound:
			// no_data: nothing in this user's window
		default:
			return fmt.Errorf("median query for %s returned status %d", userID, resp.StatusCode)
		}
	}

	stats.MediansSampled = retrieved
	logger.Get().Info(ctx, "sampled user medians",
		logger.Int("queried", sample),
		logger.Int("retrieved", retrieved))

	return nil
}

// reportServiceStats fetches the service counters after the run and
// cross-checks them against the client-side tallies.
func reportServiceStats(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats endpoint returned status %d", resp.StatusCode)
	}

	var out StatsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse stats response: %w", err)
	}

	fields := []logger.Field{
		logger.Int64("ingestRequestsTotal", out.IngestRequestsTotal),
		logger.Int64("eventsReceivedTotal", out.EventsReceivedTotal),
		logger.Int64("inferenceCallsTotal", out.InferenceCallsTotal),
		logger.Int64("queueRejectionsTotal", out.QueueRejectionsTotal),
		logger.Int64("lastIngestTime", out.LastIngestTime),
	}
	if out.MedianOfMedians != nil {
		fields = append(fields, logger.Float64("medianOfMedians", *out.MedianOfMedians))
	}
	logger.Get().Info(ctx, "service stats after run", fields...)

	if out.EventsReceivedTotal < int64(stats.EventsAccepted) {
		logger.Get().Warn(ctx, "service counted fewer events than the client saw accepted",
			logger.Int64("service", out.EventsReceivedTotal),
			logger.Int("client", stats.EventsAccepted))
	}

	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsAccepted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("batchesSent", stats.BatchesSent),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("capacityRetries", stats.EventsRejected),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("mediansSampled", stats.MediansSampled),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
