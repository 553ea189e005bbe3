package fixture

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

	"github.com/matchday/engine/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
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

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// createPlayers posts the roster to the engine one by one. Conflicts from a
// re-run against a seeded engine count as successes.
func createPlayers(ctx context.Context, config *Config, players []Player, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/players"

	for _, p := range players {
		resp, err := client.Post(ctx, url, p)
		if err != nil {
			return fmt.Errorf("failed to create player %s: %w", p.ID, err)
		}
		_, _ = readResponseBody(resp)
		if resp.StatusCode != StatusCreated && resp.StatusCode != http.StatusConflict {
			return fmt.Errorf("unexpected status %d creating player %s", resp.StatusCode, p.ID)
		}
		stats.PlayersCreated++
	}

	logger.Get().Info(ctx, "roster created", logger.Int("players", stats.PlayersCreated))
	return nil
}

// submitRatings submits peer ratings concurrently using a worker pool.
func submitRatings(ctx context.Context, config *Config, ratings []Rating, stats *Stats) error {
	logger.Get().Info(ctx, "submitting ratings",
		logger.Int("count", len(ratings)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/ratings"

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	ratingChan := make(chan Rating, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for rating := range ratingChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					if submitSingleRating(ctx, client, url, rating) {
						atomic.AddInt64(&successful, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}

					if config.Verbose && atomic.LoadInt64(&submitted)%500 == 0 {
						logger.Get().Info(ctx, "rating submission progress",
							logger.Int64("submitted", atomic.LoadInt64(&submitted)),
							logger.Int("total", len(ratings)))
					}
				}
			}
		}()
	}

	go func() {
		defer close(ratingChan)
		for _, rating := range ratings {
			select {
			case <-ctx.Done():
				return
			case ratingChan <- rating:
			}
		}
	}()

	wg.Wait()

	stats.RatingsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RatingsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RatingsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "rating submission completed",
		logger.Int("successful", stats.RatingsSuccessful),
		logger.Int("failed", stats.RatingsFailed))

	if stats.RatingsFailed > 0 && stats.RatingsSuccessful == 0 {
		return fmt.Errorf("all %d rating submissions failed", stats.RatingsFailed)
	}
	return nil
}

// submitSingleRating submits one rating and reports whether it was accepted.
func submitSingleRating(ctx context.Context, client *HTTPClient, url string, rating Rating) bool {
	resp, err := client.Post(ctx, url, rating)
	if err != nil {
		return false
	}
	_, _ = readResponseBody(resp)
	return resp.StatusCode == StatusAccepted
}
