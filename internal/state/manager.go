package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run types recorded in history.
const (
	RunSync    = "sync"
	RunExtract = "extract"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Manager persists the history of mirror passes and extraction runs.
type Manager struct {
	db *sql.DB
}

// RunRecord represents one completed (or failed) run.
type RunRecord struct {
	ID        int64
	Type      string // "sync" or "extract"
	Dataset   string
	StartTime time.Time
	EndTime   time.Time
	Status    string // "success" or "failed"
	Fetched   int
	Skipped   int
	Refreshed int
	Error     string
}

// NewManager opens the history database under dataDir, creating it if
// needed.
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chemmirror.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_type TEXT NOT NULL,
		dataset TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		fetched INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		refreshed INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_type_time ON runs(run_type, start_time DESC);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveRun records one run.
func (m *Manager) SaveRun(record RunRecord) error {
	if record.Status != StatusSuccess && record.Status != StatusFailed {
		return fmt.Errorf("invalid status: %s (must be %q or %q)", record.Status, StatusSuccess, StatusFailed)
	}
	if record.Type != RunSync && record.Type != RunExtract {
		return fmt.Errorf("invalid run type: %s", record.Type)
	}

	query := `
		INSERT INTO runs (run_type, dataset, start_time, end_time, status, fetched, skipped, refreshed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.Type,
		record.Dataset,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.Fetched,
		record.Skipped,
		record.Refreshed,
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// History retrieves the most recent runs, newest first.
func (m *Manager) History(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT id, run_type, dataset, start_time, end_time, status, fetched, skipped, refreshed, error
		FROM runs
		ORDER BY start_time DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Dataset,
			&record.StartTime,
			&record.EndTime,
			&record.Status,
			&record.Fetched,
			&record.Skipped,
			&record.Refreshed,
			&record.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (m *Manager) Close() error {
	return m.db.Close()
}
