package weather

import (
	"sync"
	"time"

	"github.com/skywatch/metar-reader/pkg/logger"
)

type cacheEntry struct {
	report    *Report
	expiresAt time.Time
}

// Cache holds the most recent decoded report per station with thread-safe
// access and per-entry expiry. Expired entries are still returned by
// GetStale so a failed refresh degrades to the last known data instead of
// nothing.
type Cache struct {
	entries map[string]cacheEntry
	config  Config
	logger  *logger.Logger
	mu      sync.RWMutex
}

// NewCache creates a new report cache
func NewCache(config Config, logger *logger.Logger) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		config:  config,
		logger:  logger.Named("weather-cache"),
	}
}

// Get returns the cached report for a station if present and fresh
func (c *Cache) Get(station string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[station]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.report, true
}

// GetStale returns the cached report for a station even if expired
func (c *Cache) GetStale(station string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[station]
	if !ok {
		return nil, false
	}
	return entry.report, true
}

// Set stores a report for its station
func (c *Cache) Set(report *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry := time.Duration(c.config.CacheExpiryMinutes) * time.Minute
	c.entries[report.Station] = cacheEntry{
		report:    report,
		expiresAt: time.Now().Add(expiry),
	}

	c.logger.Debug("Report cached",
		logger.String("station", report.Station),
		logger.Time("fetched_at", report.FetchedAt),
		logger.Time("expires_at", time.Now().Add(expiry)))
}

// Invalidate clears all cached reports
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.logger.Info("Report cache invalidated")
}

// Stats returns cache statistics keyed by station
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stations := make(map[string]interface{}, len(c.entries))
	for station, entry := range c.entries {
		stations[station] = map[string]interface{}{
			"fetched_at": entry.report.FetchedAt,
			"expires_at": entry.expiresAt,
			"expired":    time.Now().After(entry.expiresAt),
		}
	}

	return map[string]interface{}{
		"station_count": len(c.entries),
		"stations":      stations,
	}
}
