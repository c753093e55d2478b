// Package sqlite keeps the export history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bft-labs/probecast/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS exports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	location TEXT NOT NULL,
	frames INTEGER NOT NULL DEFAULT 0,
	bytes INTEGER NOT NULL DEFAULT 0,
	compressed INTEGER NOT NULL DEFAULT 0,
	range_start INTEGER NOT NULL DEFAULT 0,
	range_end INTEGER NOT NULL DEFAULT 0,
	finished_at DATETIME NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exports_finished_at ON exports(finished_at);
`

// Catalog implements ports.ExportCatalog on SQLite.
type Catalog struct {
	db *sql.DB
}

var _ ports.ExportCatalog = (*Catalog)(nil)

// Open opens (or creates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores a completed export. Recording the same session twice
// replaces the earlier row.
func (c *Catalog) Record(ctx context.Context, rec ports.ExportRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO exports (session_id, location, frames, bytes, compressed, range_start, range_end, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			location = excluded.location,
			frames = excluded.frames,
			bytes = excluded.bytes,
			compressed = excluded.compressed,
			range_start = excluded.range_start,
			range_end = excluded.range_end,
			finished_at = excluded.finished_at
	`, rec.SessionID, rec.Location, rec.Frames, rec.Bytes, rec.Compressed,
		rec.RangeStart, rec.RangeEnd, rec.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// List returns the most recent exports first. limit <= 0 returns all of them.
func (c *Catalog) List(ctx context.Context, limit int) ([]ports.ExportRecord, error) {
	query := `
		SELECT session_id, location, frames, bytes, compressed, range_start, range_end, finished_at
		FROM exports
		ORDER BY finished_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var records []ports.ExportRecord
	for rows.Next() {
		var rec ports.ExportRecord
		var finished time.Time
		if err := rows.Scan(&rec.SessionID, &rec.Location, &rec.Frames, &rec.Bytes, &rec.Compressed,
			&rec.RangeStart, &rec.RangeEnd, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		rec.FinishedAt = finished
		records = append(records, rec)
	}
	return records, rows.Err()
}
