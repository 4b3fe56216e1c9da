package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skywatch/metar-reader/pkg/logger"
)

// Client handles HTTP requests to the raw report API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(config Config, logger *logger.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		logger: logger.Named("weather-client"),
	}
}

// FetchRawMETAR fetches the latest raw METAR text for the specified station.
// The API returns one report per line in plain text; the first line is the
// most recent observation.
func (c *Client) FetchRawMETAR(ctx context.Context, station string) (string, error) {
	url := fmt.Sprintf("%s?ids=%s&format=raw", c.config.APIBaseURL, station)

	body, err := c.fetchWithRetry(ctx, url, station)
	if err != nil {
		return "", err
	}

	raw, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("no METAR data found for %s", station)
	}

	return raw, nil
}

// fetchWithRetry performs an HTTP request with retry logic and exponential backoff
func (c *Client) fetchWithRetry(ctx context.Context, url, station string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying report fetch",
				logger.String("station", station),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		body, err := c.fetchOnce(ctx, url)
		if err != nil {
			lastErr = err
			c.logger.Warn("Report fetch failed, may retry",
				logger.String("station", station),
				logger.Error(err),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		if attempt > 0 {
			c.logger.Info("Successfully fetched report after retries",
				logger.String("station", station),
				logger.Int("attempts_needed", attempt+1))
		}
		return body, nil
	}

	c.logger.Error("All attempts to fetch report failed",
		logger.String("station", station),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return "", lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request to weather API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading weather API response: %w", err)
	}

	return string(body), nil
}

// FetchAll fetches raw reports for all stations concurrently
func (c *Client) FetchAll(ctx context.Context, stations []string) []FetchResult {
	results := make(chan FetchResult, len(stations))

	for _, station := range stations {
		go func(station string) {
			raw, err := c.FetchRawMETAR(ctx, station)
			results <- FetchResult{Station: station, Raw: raw, Err: err}
		}(station)
	}

	fetchResults := make([]FetchResult, 0, len(stations))
	for range stations {
		fetchResults = append(fetchResults, <-results)
	}

	return fetchResults
}
