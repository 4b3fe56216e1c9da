package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skywatch/metar-reader/internal/metar"
	"github.com/skywatch/metar-reader/pkg/logger"
)

// ReportStore persists decoded reports for history queries
type ReportStore interface {
	SaveReport(ctx context.Context, report *Report) error
}

// Broadcaster pushes fresh reports to connected clients
type Broadcaster interface {
	BroadcastReport(report *Report)
}

// Service manages report fetching, decoding, and caching for the tracked
// stations. On-demand stations outside the tracked set are fetched and
// cached but not refreshed in the background.
type Service struct {
	config   Config
	stations []string
	client   *Client
	cache    *Cache
	store    ReportStore
	notifier Broadcaster
	logger   *logger.Logger

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	// Initial data readiness
	initialDataReady chan struct{}
	initialDataOnce  sync.Once
}

// NewService creates a new weather service. store and notifier may be nil,
// in which case persistence and broadcasting are skipped.
func NewService(config Config, stations []string, store ReportStore, notifier Broadcaster, logger *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		config:           config,
		stations:         stations,
		client:           NewClient(config, logger),
		cache:            NewCache(config, logger),
		store:            store,
		notifier:         notifier,
		logger:           logger.Named("weather-service"),
		ctx:              ctx,
		cancel:           cancel,
		initialDataReady: make(chan struct{}),
	}
}

// Start begins the weather service background operations
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info("Starting weather service",
		logger.Int("station_count", len(s.stations)),
		logger.Int("refresh_interval_minutes", s.config.RefreshIntervalMinutes))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.performInitialFetch()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.backgroundRefresh()
	}()

	s.started = true
	return nil
}

// Stop gracefully shuts down the weather service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping weather service")
	s.cancel()
	s.wg.Wait()

	s.started = false
	s.logger.Info("Weather service stopped")
	return nil
}

// IsStarted returns whether the service is currently running
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// WaitReady blocks until the initial fetch of tracked stations has
// completed, or the timeout elapses.
func (s *Service) WaitReady(timeout time.Duration) bool {
	select {
	case <-s.initialDataReady:
		return true
	case <-time.After(timeout):
		return false
	}
}

// GetReport returns the current report for a station, fetching it when the
// cache has no fresh copy. A failed fetch falls back to stale cached data
// when any exists.
func (s *Service) GetReport(ctx context.Context, station string) (*Report, error) {
	if report, ok := s.cache.Get(station); ok {
		return report, nil
	}

	report, err := s.fetchStation(ctx, station)
	if err != nil {
		if stale, ok := s.cache.GetStale(station); ok {
			s.logger.Warn("Fetch failed, serving stale report",
				logger.String("station", station),
				logger.Error(err))
			return stale, nil
		}
		return nil, err
	}

	return report, nil
}

// DecodeRaw decodes caller-supplied report text without touching the cache
// or any network source.
func (s *Service) DecodeRaw(raw string) (*Report, error) {
	return buildReport(raw, time.Now())
}

// RefreshNow triggers an immediate refresh of all tracked stations
func (s *Service) RefreshNow() {
	s.logger.Info("Manual refresh triggered")
	go s.fetchAndUpdateCache()
}

// CacheStats returns cache statistics
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// Stations returns the tracked station codes
func (s *Service) Stations() []string {
	return s.stations
}

// performInitialFetch performs the first fetch of all tracked stations
func (s *Service) performInitialFetch() {
	s.logger.Info("Performing initial report fetch",
		logger.Int("station_count", len(s.stations)))

	s.fetchAndUpdateCache()

	s.initialDataOnce.Do(func() {
		close(s.initialDataReady)
		s.logger.Info("Initial report fetch completed")
	})
}

// backgroundRefresh runs the periodic report refresh
func (s *Service) backgroundRefresh() {
	refreshInterval := time.Duration(s.config.RefreshIntervalMinutes) * time.Minute
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	s.logger.Info("Background report refresh started",
		logger.String("interval", refreshInterval.String()))

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Background report refresh stopped")
			return
		case <-ticker.C:
			s.logger.Debug("Periodic report refresh triggered")
			s.fetchAndUpdateCache()
		}
	}
}

// fetchAndUpdateCache fetches all tracked stations and updates the cache
func (s *Service) fetchAndUpdateCache() {
	startTime := time.Now()

	results := s.client.FetchAll(s.ctx, s.stations)

	var failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			s.logger.Warn("Failed to fetch report",
				logger.String("station", result.Station),
				logger.Error(result.Err))
			continue
		}
		s.ingest(result.Station, result.Raw)
	}

	s.logger.Info("Report fetch completed",
		logger.Int("station_count", len(results)),
		logger.Int("failed", failed),
		logger.String("duration", time.Since(startTime).String()))
}

// fetchStation fetches, decodes, and caches a single station's report
func (s *Service) fetchStation(ctx context.Context, station string) (*Report, error) {
	raw, err := s.client.FetchRawMETAR(ctx, station)
	if err != nil {
		return nil, err
	}

	report := s.ingest(station, raw)
	if report == nil {
		return nil, fmt.Errorf("report for %s could not be decoded", station)
	}
	return report, nil
}

// ingest decodes a raw report, caches it, persists it, and notifies
// subscribers. Returns nil when the report text is unusable.
func (s *Service) ingest(station, raw string) *Report {
	report, err := buildReport(raw, time.Now())
	if err != nil {
		s.logger.Warn("Discarding undecodable report",
			logger.String("station", station),
			logger.String("raw", raw),
			logger.Error(err))
		return nil
	}

	s.cache.Set(report)

	if s.store != nil {
		if err := s.store.SaveReport(s.ctx, report); err != nil {
			s.logger.Error("Failed to persist report",
				logger.String("station", report.Station),
				logger.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.BroadcastReport(report)
	}

	return report
}

// buildReport decodes raw report text into a Report. The station comes
// from the decoded header rather than the requested code, since the
// upstream API can serve a nearby station when the requested one has no
// recent observation.
func buildReport(raw string, fetchedAt time.Time) (*Report, error) {
	decoded, err := metar.Decode(raw)
	if err != nil {
		return nil, err
	}

	return &Report{
		Station:        decoded.Station,
		Raw:            raw,
		Decoded:        decoded,
		Summary:        metar.Summarize(decoded),
		FlightCategory: metar.Categorize(decoded),
		FetchedAt:      fetchedAt,
	}, nil
}
