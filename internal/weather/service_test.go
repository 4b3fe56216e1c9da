package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch/metar-reader/pkg/logger"
)

const sampleRaw = "KJFK 251951Z 32015G22KT 10SM FEW050 BKN250 09/M04 A2983"

func testConfig(apiURL string) Config {
	cfg := DefaultConfig()
	cfg.APIBaseURL = apiURL
	cfg.MaxRetries = 0
	return cfg
}

type recordingStore struct {
	mu      sync.Mutex
	reports []*Report
}

func (s *recordingStore) SaveReport(_ context.Context, report *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func TestGetReportFetchesAndCaches(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "KJFK", r.URL.Query().Get("ids"))
		w.Write([]byte(sampleRaw + "\n"))
	}))
	defer server.Close()

	store := &recordingStore{}
	svc := NewService(testConfig(server.URL), []string{"KJFK"}, store, nil, logger.Nop())

	report, err := svc.GetReport(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, "KJFK", report.Station)
	assert.Equal(t, sampleRaw, report.Raw)
	assert.Contains(t, report.Summary, "mostly cloudy")
	assert.Equal(t, 1, store.count())

	// second call served from cache
	again, err := svc.GetReport(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Same(t, report, again)
	assert.Equal(t, 1, hits)
}

func TestGetReportServesStaleOnFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL), []string{"KJFK"}, nil, nil, logger.Nop())

	stale, err := buildReport(sampleRaw, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	svc.cache.entries["KJFK"] = cacheEntry{report: stale, expiresAt: time.Now().Add(-time.Minute)}

	report, err := svc.GetReport(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Same(t, stale, report)
}

func TestGetReportErrorWithoutCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL), []string{"KJFK"}, nil, nil, logger.Nop())

	_, err := svc.GetReport(context.Background(), "XXXX")
	assert.Error(t, err)
}

func TestDecodeRaw(t *testing.T) {
	svc := NewService(DefaultConfig(), nil, nil, nil, logger.Nop())

	report, err := svc.DecodeRaw(sampleRaw)
	require.NoError(t, err)
	assert.Equal(t, "KJFK", report.Station)
	assert.NotEmpty(t, report.Summary)

	_, err = svc.DecodeRaw("")
	assert.Error(t, err)
}

func TestFetchRawMETARTakesFirstLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRaw + "\nKJFK 251851Z 31014KT 10SM FEW050 09/M04 A2980\n"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.Nop())
	raw, err := client.FetchRawMETAR(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, sampleRaw, raw)
}

func TestFetchRawMETAREmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.Nop())
	_, err := client.FetchRawMETAR(context.Background(), "KJFK")
	assert.Error(t, err)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(DefaultConfig(), logger.Nop())

	report, err := buildReport(sampleRaw, time.Now())
	require.NoError(t, err)
	cache.Set(report)

	got, ok := cache.Get("KJFK")
	require.True(t, ok)
	assert.Same(t, report, got)

	cache.entries["KJFK"] = cacheEntry{report: report, expiresAt: time.Now().Add(-time.Second)}
	_, ok = cache.Get("KJFK")
	assert.False(t, ok)

	stale, ok := cache.GetStale("KJFK")
	require.True(t, ok)
	assert.Same(t, report, stale)
}

func TestServiceStartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRaw + "\n"))
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL), []string{"KJFK"}, nil, nil, logger.Nop())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsStarted())
	assert.True(t, svc.WaitReady(5*time.Second))

	report, err := svc.GetReport(context.Background(), "KJFK")
	require.NoError(t, err)
	assert.Equal(t, "KJFK", report.Station)

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsStarted())
}
