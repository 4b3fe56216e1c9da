package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Storage: StorageConfig{Type: "sqlite", SQLiteBasePath: "data"},
		Stations: StationsConfig{
			Primary:    "KJFK",
			Additional: []string{"KBOS", "KLGA"},
		},
		Weather: WeatherConfig{
			RefreshIntervalMinutes: 10,
			APIBaseURL:             "https://aviationweather.gov/api/data/metar",
			RequestTimeoutSeconds:  30,
			MaxRetries:             3,
			CacheExpiryMinutes:     60,
		},
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
port = 8080
host = "0.0.0.0"

[logging]
level = "debug"
format = "json"

[storage]
type = "sqlite"
sqlite_base_path = "data"

[stations]
primary = "KJFK"
additional = ["KBOS"]

[wx]
refresh_interval_minutes = 10
api_base_url = "https://aviationweather.gov/api/data/metar"
request_timeout_seconds = 30
max_retries = 3
cache_expiry_minutes = 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "KJFK", cfg.Stations.Primary)
	assert.Equal(t, []string{"KJFK", "KBOS"}, cfg.Stations.All())
	assert.Equal(t, 10, cfg.Weather.RefreshIntervalMinutes)

	require.NoError(t, cfg.Validate())
	// defaults filled in
	assert.Equal(t, "www", cfg.Server.StaticFilesDir)
	assert.Equal(t, 60, cfg.Storage.MaxHistoryRows)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"duplicate port", func(c *Config) { c.Server.AdditionalPorts = []int{8080} }, "duplicate port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"bad storage type", func(c *Config) { c.Storage.Type = "postgres" }, "invalid storage type"},
		{"missing primary station", func(c *Config) { c.Stations.Primary = "" }, "primary is required"},
		{"lowercase station", func(c *Config) { c.Stations.Primary = "kjfk" }, "invalid station code"},
		{"duplicate station", func(c *Config) { c.Stations.Additional = []string{"KJFK"} }, "duplicate station code"},
		{"bad refresh interval", func(c *Config) { c.Weather.RefreshIntervalMinutes = 0 }, "refresh_interval_minutes"},
		{"missing api url", func(c *Config) { c.Weather.APIBaseURL = "" }, "api_base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
