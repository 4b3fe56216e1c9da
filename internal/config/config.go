package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Storage  StorageConfig  `toml:"storage"`  // Data persistence settings
	Stations StationsConfig `toml:"stations"` // Reporting stations to track
	Weather  WeatherConfig  `toml:"wx"`       // Weather data fetching and caching settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve static files from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`             // Storage backend type (currently only "sqlite" is supported)
	SQLiteBasePath string `toml:"sqlite_base_path"` // Base path for SQLite database files (actual filename will be generated as metar-reader-YYYY-MM-DD.db)
	MaxHistoryRows int    `toml:"max_history_rows"` // Maximum number of stored reports to return in the /history API response
}

// StationsConfig contains the set of reporting stations the service tracks
type StationsConfig struct {
	Primary    string   `toml:"primary"`    // ICAO code of the primary station (e.g., "KJFK")
	Additional []string `toml:"additional"` // Additional ICAO codes refreshed in the background
}

// All returns the primary station followed by the additional stations
func (s StationsConfig) All() []string {
	return append([]string{s.Primary}, s.Additional...)
}

// WeatherConfig contains weather data fetching and caching configuration
type WeatherConfig struct {
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"` // Weather data refresh interval in minutes
	APIBaseURL             string `toml:"api_base_url"`             // Base URL for the raw report API (e.g., https://aviationweather.gov/api/data/metar)
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`  // HTTP request timeout in seconds
	MaxRetries             int    `toml:"max_retries"`              // Maximum number of retry attempts for failed requests
	CacheExpiryMinutes     int    `toml:"cache_expiry_minutes"`     // How long to keep cached data if refresh fails
}

var icaoRegex = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLiteBasePath == "" {
		return fmt.Errorf("sqlite_base_path is required when storage type is sqlite")
	}
	if c.Storage.MaxHistoryRows <= 0 {
		c.Storage.MaxHistoryRows = 60
	}

	if err := c.ValidateStations(); err != nil {
		return err
	}

	return c.ValidateWeather()
}

// ValidateStations validates the tracked station configuration
func (c *Config) ValidateStations() error {
	if c.Stations.Primary == "" {
		return fmt.Errorf("stations primary is required")
	}

	seen := make(map[string]bool)
	for _, code := range c.Stations.All() {
		if !icaoRegex.MatchString(code) {
			return fmt.Errorf("invalid station code: %s (must be 4 uppercase letters or digits)", code)
		}
		if seen[code] {
			return fmt.Errorf("duplicate station code: %s", code)
		}
		seen[code] = true
	}

	return nil
}

// ValidateWeather validates the weather configuration
func (c *Config) ValidateWeather() error {
	if c.Weather.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("weather refresh_interval_minutes must be greater than 0: %d", c.Weather.RefreshIntervalMinutes)
	}

	if c.Weather.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("weather request_timeout_seconds must be greater than 0: %d", c.Weather.RequestTimeoutSeconds)
	}

	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("weather max_retries must be 0 or greater: %d", c.Weather.MaxRetries)
	}

	if c.Weather.CacheExpiryMinutes <= 0 {
		return fmt.Errorf("weather cache_expiry_minutes must be greater than 0: %d", c.Weather.CacheExpiryMinutes)
	}

	if c.Weather.APIBaseURL == "" {
		return fmt.Errorf("weather api_base_url cannot be empty")
	}

	return nil
}
