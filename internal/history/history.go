package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/reproneuro/deface/internal/model"
)

// Store provides SQLite-backed storage for the run ledger.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the ledger database under dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "deface.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check ledger path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw / mode=rwc in the DSN to control
	// whether a missing file may be created.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite supports a single writer; the ledger is written by one
	// sequential process anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the ledger database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input TEXT NOT NULL,
		mask TEXT,
		defaced TEXT,
		original TEXT,
		chained INTEGER NOT NULL DEFAULT 0,
		annexed INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_input ON items(input);
	CREATE INDEX IF NOT EXISTS idx_items_started ON items(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveItem records one processed item.
func (s *Store) SaveItem(ctx context.Context, item *model.ItemResult) error {
	const query = `
	INSERT INTO items (input, mask, defaced, original, chained, annexed, status, error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		item.Input, item.Mask, item.Defaced, item.Original,
		item.Chained, item.Annexed, item.Status, item.Error,
		item.StartedAt, item.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger item: %w", err)
	}
	return nil
}

// RecentItems returns up to limit items, newest first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]model.ItemResult, error) {
	const query = `
	SELECT input, mask, defaced, original, chained, annexed, status, error, started_at, finished_at
	FROM items ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var items []model.ItemResult
	for rows.Next() {
		var item model.ItemResult
		if err := rows.Scan(
			&item.Input, &item.Mask, &item.Defaced, &item.Original,
			&item.Chained, &item.Annexed, &item.Status, &item.Error,
			&item.StartedAt, &item.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
