// Package alertlog persists fired alerts in an append-only SQLite log. The
// monitor only ever appends and prunes; firing decisions never read the log
// back, so there is no read-after-write dependency on this store.
package alertlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/envsense/airwatch/internal/models"
)

const sqliteDriverName = "sqlite"

const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alert_log (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    message TEXT NOT NULL,
    value REAL NOT NULL,
    fired_at INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    dismissed BOOLEAN NOT NULL DEFAULT 0
);
`

const indexAlertsFiredAt = `
CREATE INDEX IF NOT EXISTS idx_alert_log_fired_at ON alert_log (fired_at);
`

// OpenDB opens/creates the SQLite database file and ensures the schema exists.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	for _, stmt := range []string{schemaAlerts, indexAlertsFiredAt} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply alert log schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// Store is the append-only alert log repository.
type Store interface {
	Append(ctx context.Context, rec models.AlertLogRecord) error
	List(ctx context.Context, limit int) ([]models.AlertLogRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteStore implements Store on a database/sql handle.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a Store backed by the given database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore { return &SQLiteStore{db: db} }

// Append inserts a new record. If ID is empty it is assigned.
func (s *SQLiteStore) Append(ctx context.Context, rec models.AlertLogRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_log (id, category, message, value, fired_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.ID,
		string(rec.Category),
		rec.Message,
		rec.Value,
		rec.FiredAt,
	)
	if err != nil {
		return fmt.Errorf("append alert log record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first. A non-positive limit
// defaults to 50.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.AlertLogRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, message, value, fired_at, created_at, dismissed
		FROM alert_log
		ORDER BY fired_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list alert log records: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertLogRecord, 0, limit)
	for rows.Next() {
		var rec models.AlertLogRecord
		var category string
		if err := rows.Scan(&rec.ID, &category, &rec.Message, &rec.Value, &rec.FiredAt, &rec.CreatedAt, &rec.Dismissed); err != nil {
			return nil, err
		}
		rec.Category = models.AlertCategory(category)
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOlderThan removes records fired before cutoff and reports how many
// rows were deleted.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alert_log WHERE fired_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune alert log: %w", err)
	}
	return res.RowsAffected()
}
