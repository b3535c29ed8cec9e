package searchidx

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

// Index is the search-index ingestion backend: molecule names and
// identifiers go into an indexed SQLite table for name lookup.
type Index struct {
	db *sql.DB
}

// Open opens an existing index or creates a new one at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("index path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS molecule_index (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cid TEXT,
		name TEXT,
		source_file TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_molecule_index_name ON molecule_index(name);
	CREATE INDEX IF NOT EXISTS idx_molecule_index_cid ON molecule_index(cid);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Handle parses the structure-data file at path and indexes each
// record. Per-record failures are logged and skipped.
func (i *Index) Handle(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log := logger.With("file", path)
	reader := sdf.NewReader(f)
	indexed := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := reader.Next()
		if err != nil {
			break
		}

		query := `INSERT INTO molecule_index (cid, name, source_file) VALUES (?, ?, ?)`
		if _, err := i.db.ExecContext(ctx, query, rec.CID(), rec.Name, path); err != nil {
			log.Error("cannot index molecule", "cid", rec.CID(), "error", err)
			continue
		}
		indexed++
	}

	log.Info("file indexed", "molecules", indexed)
	return nil
}

// Search returns the identifiers of molecules whose name or CID
// contains the query term.
func (i *Index) Search(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + term + "%"
	rows, err := i.db.QueryContext(ctx,
		"SELECT cid FROM molecule_index WHERE name LIKE ? OR cid LIKE ? LIMIT ?",
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var cids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		cids = append(cids, cid)
	}
	return cids, rows.Err()
}

// Close releases the index session.
func (i *Index) Close() error {
	return i.db.Close()
}
