package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medrift/medrift/pkg/logger"
)

// Retry behavior for capacity rejections.
const (
	maxBatchRetries = 5
	retryBackoff    = 100 * time.Millisecond
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

type ingestRequest struct {
	Events []Event `json:"events"`
}

// submitEvents splits events into batches and submits them with a pool
// of concurrent workers. Capacity rejections retry the unaccepted tail
// of the batch after a short backoff.
func submitEvents(ctx context.Context, config *Config, events []Event, stats *Stats) error {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/ingest"

	var (
		batches  int64
		accepted int64
		rejected int64
		failed   int64
	)

	batchChan := make(chan []Event, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				ok, batchAccepted, retries := submitBatch(ctx, client, url, batch)
				atomic.AddInt64(&batches, 1)
				atomic.AddInt64(&accepted, int64(batchAccepted))
				atomic.AddInt64(&rejected, int64(retries))
				if !ok {
					atomic.AddInt64(&failed, 1)
				}

				if config.Verbose {
					logger.Get().Debug(ctx, "batch submitted",
						logger.Int("accepted", batchAccepted),
						logger.Int("retries", retries))
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for start := 0; start < len(events); start += config.BatchSize {
			end := start + config.BatchSize
			if end > len(events) {
				end = len(events)
			}
			select {
			case <-ctx.Done():
				return
			case batchChan <- events[start:end]:
			}
		}
	}()

	wg.Wait()

	stats.BatchesSent = int(atomic.LoadInt64(&batches))
	stats.EventsAccepted = int(atomic.LoadInt64(&accepted))
	stats.EventsRejected = int(atomic.LoadInt64(&rejected))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "event submission completed",
		logger.Int("batches", stats.BatchesSent),
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("capacityRetries", stats.EventsRejected),
		logger.Int("failedBatches", stats.BatchesFailed))

	return nil
}

// submitBatch posts one batch, resubmitting the unaccepted tail when
// the service reports capacity_exceeded. Returns whether the batch was
// fully accepted, how many events got in, and how many retries it took.
func submitBatch(ctx context.Context, client *HTTPClient, url string, batch []Event) (ok bool, accepted, retries int) {
	remaining := batch
	for attempt := 0; attempt <= maxBatchRetries; attempt++ {
		resp, err := client.Post(ctx, url, ingestRequest{Events: remaining})
		if err != nil {
			return false, accepted, retries
		}

		body, err := readResponseBody(resp)
		if err != nil {
			return false, accepted, retries
		}

		var ack AckResponse
		switch resp.StatusCode {
		case http.StatusAccepted:
			if err := json.Unmarshal(body, &ack); err == nil {
				accepted += ack.Accepted
			} else {
				accepted += len(remaining)
			}
			return true, accepted, retries

		case http.StatusTooManyRequests:
			if err := json.Unmarshal(body, &ack); err != nil {
				return false, accepted, retries
			}
			accepted += ack.Accepted
			remaining = remaining[ack.Accepted:]
			retries++

			select {
			case <-ctx.Done():
				return false, accepted, retries
			case <-time.After(retryBackoff):
			}

		default:
			return false, accepted, retries
		}
	}
	return false, accepted, retries
}
