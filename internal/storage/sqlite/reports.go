package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skywatch/metar-reader/internal/metar"
	"github.com/skywatch/metar-reader/internal/weather"
	"github.com/skywatch/metar-reader/pkg/logger"
	_ "modernc.org/sqlite"
)

// ReportStorage is a SQLite-based storage for decoded weather reports
type ReportStorage struct {
	db             *sql.DB
	logger         *logger.Logger
	maxHistoryRows int
}

// NewReportStorage creates a new SQLite-based report storage
func NewReportStorage(dbPath string, maxHistoryRows int, log *logger.Logger) (*ReportStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
		return nil, fmt.Errorf("failed to set cache size: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &ReportStorage{
		db:             db,
		logger:         storageLogger,
		maxHistoryRows: maxHistoryRows,
	}, nil
}

// Close closes the database connection
func (s *ReportStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			station TEXT NOT NULL,
			raw TEXT NOT NULL,
			summary TEXT,
			flight_category TEXT,
			decoded TEXT,           -- full decoded record as JSON
			fetched_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reports_station_fetched
		ON reports (station, fetched_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reports index: %w", err)
	}

	return nil
}

// SaveReport persists a decoded report. Consecutive identical observations
// for a station are collapsed into one row, since the upstream API repeats
// the latest report until the station issues a new one.
func (s *ReportStorage) SaveReport(ctx context.Context, report *weather.Report) error {
	var lastRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw FROM reports WHERE station = ? ORDER BY fetched_at DESC LIMIT 1`,
		report.Station).Scan(&lastRaw)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query last report: %w", err)
	}
	if lastRaw == report.Raw {
		s.logger.Debug("Skipping unchanged report",
			logger.String("station", report.Station))
		return nil
	}

	decodedJSON, err := json.Marshal(report.Decoded)
	if err != nil {
		return fmt.Errorf("failed to marshal decoded report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (station, raw, summary, flight_category, decoded, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.Station, report.Raw, report.Summary, string(report.FlightCategory),
		string(decodedJSON), report.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	s.logger.Debug("Report saved",
		logger.String("station", report.Station),
		logger.Time("fetched_at", report.FetchedAt))
	return nil
}

// GetRecent returns the most recent stored reports for a station, newest
// first, capped at the configured history limit.
func (s *ReportStorage) GetRecent(ctx context.Context, station string, limit int) ([]*weather.Report, error) {
	if limit <= 0 || limit > s.maxHistoryRows {
		limit = s.maxHistoryRows
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT station, raw, summary, flight_category, decoded, fetched_at
		FROM reports
		WHERE station = ?
		ORDER BY fetched_at DESC
		LIMIT ?
	`, station, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*weather.Report
	for rows.Next() {
		var (
			report      weather.Report
			category    string
			decodedJSON string
			fetchedAt   string
		)
		if err := rows.Scan(&report.Station, &report.Raw, &report.Summary,
			&category, &decodedJSON, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}

		report.FlightCategory = metar.FlightCategory(category)
		if ts, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
			report.FetchedAt = ts
		}

		var decoded metar.DecodedMetar
		if err := json.Unmarshal([]byte(decodedJSON), &decoded); err != nil {
			s.logger.Warn("Skipping report with corrupt decoded column",
				logger.String("station", report.Station),
				logger.Error(err))
			continue
		}
		report.Decoded = &decoded

		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report rows: %w", err)
	}

	return reports, nil
}

// CountReports returns the number of stored reports per station
func (s *ReportStorage) CountReports(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT station, COUNT(*) FROM reports GROUP BY station`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var station string
		var count int
		if err := rows.Scan(&station, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[station] = count
	}
	return counts, rows.Err()
}
