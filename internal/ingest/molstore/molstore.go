package molstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/moleculab/chemmirror/internal/ingest/sdf"
	"github.com/moleculab/chemmirror/internal/logger"
)

// Store is the chemistry-database ingestion backend: one SQLite row
// per molecule record. The store is opened once per pipeline run and
// reused across every handled file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing molecule store or creates a new one at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS molecules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cid TEXT,
		name TEXT,
		record TEXT NOT NULL,
		source_file TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_molecules_cid ON molecules(cid);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Handle parses the structure-data file at path and inserts each
// record. A single record's failure is logged and skipped; the walk
// must not be aborted by one bad molecule.
func (s *Store) Handle(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log := logger.With("file", path)
	reader := sdf.NewReader(f)
	inserted := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := reader.Next()
		if err != nil {
			break
		}

		if err := s.insert(ctx, rec, path); err != nil {
			log.Error("cannot insert molecule", "cid", rec.CID(), "error", err)
			continue
		}
		inserted++
	}

	log.Info("file ingested", "molecules", inserted)
	return nil
}

// insert stores one molecule record.
func (s *Store) insert(ctx context.Context, rec sdf.Record, sourceFile string) error {
	query := `
		INSERT INTO molecules (cid, name, record, source_file)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, rec.CID(), rec.Name, rec.Raw, sourceFile)
	return err
}

// Count returns the number of stored molecules.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM molecules").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count molecules: %w", err)
	}
	return count, nil
}

// Close releases the store session.
func (s *Store) Close() error {
	return s.db.Close()
}
