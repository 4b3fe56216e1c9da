package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skywatch/metar-reader/internal/config"
	"github.com/skywatch/metar-reader/internal/storage/sqlite"
	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/internal/websocket"
	"github.com/skywatch/metar-reader/pkg/logger"
)

// Router wires the API handlers into a chi mux
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(weatherService *weather.Service, reportStorage *sqlite.ReportStorage, wsServer *websocket.Server, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(weatherService, reportStorage, wsServer, cfg, log),
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes builds the HTTP route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Timeout(30 * time.Second)).Group(func(r chi.Router) {
			r.Get("/weather", rt.handler.GetStationWeather)
			r.Get("/weather/{icao}", rt.handler.GetWeatherByICAO)
			r.Post("/weather/refresh", rt.handler.RefreshWeather)
			r.Post("/decode", rt.handler.DecodeReport)
			r.Get("/history/{icao}", rt.handler.GetHistory)
			r.Get("/health", rt.handler.GetHealth)
			r.Get("/config", rt.handler.GetConfig)
		})

		// no timeout on the websocket endpoint
		r.Get("/ws", rt.handler.HandleWebSocket)
	})

	// Static files for everything else
	staticHandler := NewStaticFileHandler(rt.config.Server.StaticFilesDir, rt.logger)
	r.NotFound(staticHandler.ServeHTTP)

	return r
}

// corsMiddleware applies the configured CORS policy
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	allowed := rt.config.Server.CORSAllowedOrigins

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && len(allowed) > 0 {
			for _, o := range allowed {
				if o == "*" || o == origin {
					w.Header().Set("Access-Control-Allow-Origin", o)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					break
				}
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
