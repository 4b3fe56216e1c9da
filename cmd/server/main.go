package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/skywatch/metar-reader/internal/api"
	"github.com/skywatch/metar-reader/internal/config"
	"github.com/skywatch/metar-reader/internal/storage/sqlite"
	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/internal/websocket"
	"github.com/skywatch/metar-reader/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting metar-reader server",
		logger.String("version", Version),
		logger.String("primary_station", cfg.Stations.Primary),
	)

	// Daily database file
	today := time.Now().Format("2006-01-02")
	dbFilename := fmt.Sprintf("metar-reader-%s.db", today)
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, dbFilename)

	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory",
			logger.Error(err),
			logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}

	log.Info("Using daily database", logger.String("path", dbPath))

	reportStorage, err := sqlite.NewReportStorage(dbPath, cfg.Storage.MaxHistoryRows, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer reportStorage.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub
	wsServer := websocket.NewServer(cfg.Stations.All(), log)
	go wsServer.Run(ctx)

	// Weather service
	weatherCfg := weather.Config{
		RefreshIntervalMinutes: cfg.Weather.RefreshIntervalMinutes,
		APIBaseURL:             cfg.Weather.APIBaseURL,
		RequestTimeoutSeconds:  cfg.Weather.RequestTimeoutSeconds,
		MaxRetries:             cfg.Weather.MaxRetries,
		CacheExpiryMinutes:     cfg.Weather.CacheExpiryMinutes,
	}
	weatherService := weather.NewService(weatherCfg, cfg.Stations.All(), reportStorage, wsServer, log)

	if err := weatherService.Start(); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	// API router
	router := api.NewRouter(weatherService, reportStorage, wsServer, cfg, log)

	// One HTTP server per configured port, all sharing the same router
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	allPorts = append(allPorts, cfg.Server.AdditionalPorts...)

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup",
					logger.String("addr", s.Addr),
					logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	log.Info("Stopping weather service...")
	weatherService.Stop()
	log.Info("Weather service stopped.")

	// Stops the WebSocket hub
	cancel()

	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error",
					logger.String("addr", srv.Addr),
					logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
