package weather

import (
	"time"

	"github.com/skywatch/metar-reader/internal/metar"
)

// Report is a fetched and decoded observation for one station
type Report struct {
	Station        string               `json:"station"`
	Raw            string               `json:"raw"`
	Decoded        *metar.DecodedMetar  `json:"decoded"`
	Summary        string               `json:"summary"`
	FlightCategory metar.FlightCategory `json:"flight_category"`
	FetchedAt      time.Time            `json:"fetched_at"`
}

// Config represents the weather service configuration
type Config struct {
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
	APIBaseURL             string `toml:"api_base_url"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
	MaxRetries             int    `toml:"max_retries"`
	CacheExpiryMinutes     int    `toml:"cache_expiry_minutes"`
}

// DefaultConfig returns the default weather configuration
func DefaultConfig() Config {
	return Config{
		RefreshIntervalMinutes: 10,
		APIBaseURL:             "https://aviationweather.gov/api/data/metar",
		RequestTimeoutSeconds:  10,
		MaxRetries:             2,
		CacheExpiryMinutes:     15,
	}
}

// FetchResult represents the result of fetching one station's raw report
type FetchResult struct {
	Station string
	Raw     string
	Err     error
}
