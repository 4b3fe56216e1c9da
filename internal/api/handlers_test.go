package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skywatch/metar-reader/internal/config"
	"github.com/skywatch/metar-reader/internal/storage/sqlite"
	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/pkg/logger"
)

const sampleRaw = "KJFK 251951Z 32015G22KT 10SM FEW050 BKN250 09/M04 A2983"

type testEnv struct {
	router   http.Handler
	storage  *sqlite.ReportStorage
	upstream *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		station := r.URL.Query().Get("ids")
		if station == "ZZZZ" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		raw := strings.Replace(sampleRaw, "KJFK", station, 1)
		w.Write([]byte(raw + "\n"))
	}))
	t.Cleanup(upstream.Close)

	storage, err := sqlite.NewReportStorage(filepath.Join(t.TempDir(), "test.db"), 10, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
			StaticFilesDir:     t.TempDir(),
		},
		Stations: config.StationsConfig{Primary: "KJFK"},
		Weather: config.WeatherConfig{
			RefreshIntervalMinutes: 10,
			APIBaseURL:             upstream.URL,
			RequestTimeoutSeconds:  5,
			MaxRetries:             0,
			CacheExpiryMinutes:     15,
		},
	}

	weatherCfg := weather.Config{
		RefreshIntervalMinutes: cfg.Weather.RefreshIntervalMinutes,
		APIBaseURL:             cfg.Weather.APIBaseURL,
		RequestTimeoutSeconds:  cfg.Weather.RequestTimeoutSeconds,
		MaxRetries:             cfg.Weather.MaxRetries,
		CacheExpiryMinutes:     cfg.Weather.CacheExpiryMinutes,
	}
	svc := weather.NewService(weatherCfg, cfg.Stations.All(), storage, nil, logger.Nop())
	require.NoError(t, svc.Start())
	t.Cleanup(func() { svc.Stop() })

	router := NewRouter(svc, storage, nil, cfg, logger.Nop())
	return &testEnv{router: router.Routes(), storage: storage, upstream: upstream}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestGetStationWeather(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/weather")
	require.Equal(t, http.StatusOK, rec.Code)

	var report weather.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "KJFK", report.Station)
	assert.Contains(t, report.Summary, "mostly cloudy")
	require.NotNil(t, report.Decoded)
	assert.Equal(t, 320, report.Decoded.Wind.Direction)
}

func TestGetWeatherByICAO(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/weather/kbos")
	require.Equal(t, http.StatusOK, rec.Code)

	var report weather.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "KBOS", report.Station)
}

func TestGetWeatherByICAOInvalidCode(t *testing.T) {
	env := newTestEnv(t)

	for _, code := range []string{"KJ", "KJFKX", "K-FK"} {
		rec := env.get(t, "/api/v1/weather/"+code)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "code=%s", code)
	}
}

func TestGetWeatherByICAOUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/weather/ZZZZ")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDecodeReport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/decode", `{"raw": "`+sampleRaw+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report weather.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "KJFK", report.Station)
	assert.Contains(t, report.Summary, "48°F")
}

func TestDecodeReportMalformed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/decode", `{"raw": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.post(t, "/api/v1/decode", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t)

	// prime history through a fetch
	rec := env.get(t, "/api/v1/weather/KJFK")
	require.Equal(t, http.StatusOK, rec.Code)

	// storage write happens on the fetch path; poll briefly in case the
	// background initial fetch is what persisted it
	deadline := time.Now().Add(2 * time.Second)
	for {
		counts, err := env.storage.CountReports(context.Background())
		require.NoError(t, err)
		if counts["KJFK"] > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	rec = env.get(t, "/api/v1/history/KJFK")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Station string            `json:"station"`
		Count   int               `json:"count"`
		Reports []*weather.Report `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "KJFK", body.Station)
	assert.GreaterOrEqual(t, body.Count, 1)
}

func TestGetHistoryInvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/history/KJFK?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetConfig(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/api/v1/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	stations, ok := body["stations"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "KJFK", stations["primary"])
	// API keys or other secrets never appear here
	assert.NotContains(t, body, "server")
}

func TestRefreshWeather(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/api/v1/weather/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
