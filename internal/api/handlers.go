package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skywatch/metar-reader/internal/config"
	"github.com/skywatch/metar-reader/internal/metar"
	"github.com/skywatch/metar-reader/internal/storage/sqlite"
	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/internal/websocket"
	"github.com/skywatch/metar-reader/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	weatherService *weather.Service
	reportStorage  *sqlite.ReportStorage
	wsServer       *websocket.Server
	config         *config.Config
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(weatherService *weather.Service, reportStorage *sqlite.ReportStorage, wsServer *websocket.Server, cfg *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		reportStorage:  reportStorage,
		wsServer:       wsServer,
		config:         cfg,
		logger:         logger.Named("api-handler"),
	}
}

var icaoParamRegex = regexp.MustCompile(`^[A-Za-z0-9]{4}$`)

// stationParam extracts and validates the icao URL parameter. Codes are
// validated at the API boundary so the decoder only ever sees plausible
// station identifiers.
func stationParam(r *http.Request) (string, bool) {
	code := chi.URLParam(r, "icao")
	if !icaoParamRegex.MatchString(code) {
		return "", false
	}
	return strings.ToUpper(code), true
}

// GetStationWeather returns the current report for the primary station
func (h *Handler) GetStationWeather(w http.ResponseWriter, r *http.Request) {
	report, err := h.weatherService.GetReport(r.Context(), h.config.Stations.Primary)
	if err != nil {
		h.logger.Error("Failed to get primary station report", logger.Error(err))
		WriteError(w, http.StatusBadGateway, "weather data temporarily unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// GetWeatherByICAO returns the current report for the requested station
func (h *Handler) GetWeatherByICAO(w http.ResponseWriter, r *http.Request) {
	station, ok := stationParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid station code")
		return
	}

	report, err := h.weatherService.GetReport(r.Context(), station)
	if err != nil {
		h.logger.Warn("Failed to get station report",
			logger.String("station", station),
			logger.Error(err))
		WriteError(w, http.StatusBadGateway, "weather data temporarily unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// DecodeRequest is the body of a decode request
type DecodeRequest struct {
	Raw string `json:"raw"`
}

// DecodeReport decodes caller-supplied raw report text
func (h *Handler) DecodeReport(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.weatherService.DecodeRaw(req.Raw)
	if err != nil {
		if errors.Is(err, metar.ErrMalformedReport) {
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("Unexpected decode failure", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "decode failed")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// GetHistory returns recent stored reports for a station
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	station, ok := stationParam(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid station code")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	reports, err := h.reportStorage.GetRecent(r.Context(), station, limit)
	if err != nil {
		h.logger.Error("Failed to query report history",
			logger.String("station", station),
			logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station": station,
		"count":   len(reports),
		"reports": reports,
	})
}

// RefreshWeather triggers an immediate refresh of all tracked stations
func (h *Handler) RefreshWeather(w http.ResponseWriter, r *http.Request) {
	h.weatherService.RefreshNow()
	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "refresh scheduled",
	})
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.weatherService.IsStarted() {
		status = "stopped"
	}

	response := map[string]interface{}{
		"status":   status,
		"time":     time.Now().UTC(),
		"stations": h.weatherService.Stations(),
		"cache":    h.weatherService.CacheStats(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetConfig returns the public configuration
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	// Sanitized config with only public values
	publicConfig := map[string]interface{}{
		"stations": map[string]interface{}{
			"primary":    h.config.Stations.Primary,
			"additional": h.config.Stations.Additional,
		},
		"wx": map[string]interface{}{
			"refresh_interval_minutes": h.config.Weather.RefreshIntervalMinutes,
			"cache_expiry_minutes":     h.config.Weather.CacheExpiryMinutes,
		},
		"storage": map[string]interface{}{
			"max_history_rows": h.config.Storage.MaxHistoryRows,
		},
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
