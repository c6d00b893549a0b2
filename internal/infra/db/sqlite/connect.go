package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		active INTEGER,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS rule_files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		uploaded_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS compliance_analyses (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		standards TEXT NOT NULL,
		method TEXT NOT NULL,
		overall_score INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		document_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_created ON compliance_analyses(created_at);`,
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	for _, q := range append([]string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"}, schema...) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute init query: %w", err)
		}
	}
	return db, nil
}
