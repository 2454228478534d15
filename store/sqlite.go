// CLAUDE:SUMMARY SQLite backing for the daily usage counters, with WAL pragmas and busy-retry on writes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage (
	day         TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (day, fingerprint)
);`

const busyRetries = 3

// SQLiteUsage implements UsageStore on a single SQLite database, selected
// with USAGE_STORE=sqlite. Same semantics as FileUsage, but safe across
// processes.
type SQLiteUsage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteUsage opens (creating if needed) the usage database.
func NewSQLiteUsage(path string) (*SQLiteUsage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create usage db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open usage db: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(usageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: usage schema: %w", err)
	}
	return &SQLiteUsage{db: db, now: time.Now}, nil
}

func (u *SQLiteUsage) Close() error {
	return u.db.Close()
}

func (u *SQLiteUsage) Count(ctx context.Context, fingerprint string) (int, error) {
	var count int
	err := u.db.QueryRowContext(ctx,
		`SELECT count FROM usage WHERE day = ? AND fingerprint = ?`,
		dayKey(u.now()), fingerprint).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: usage count: %w", err)
	}
	return count, nil
}

func (u *SQLiteUsage) Increment(ctx context.Context, fingerprint string) (int, error) {
	day := dayKey(u.now())
	var count int
	for i := 0; i < busyRetries; i++ {
		err := u.db.QueryRowContext(ctx,
			`INSERT INTO usage (day, fingerprint, count) VALUES (?, ?, 1)
			 ON CONFLICT (day, fingerprint) DO UPDATE SET count = count + 1
			 RETURNING count`,
			day, fingerprint).Scan(&count)
		if err == nil {
			return count, nil
		}
		if !isBusy(err) || i == busyRetries-1 {
			return 0, fmt.Errorf("store: usage increment: %w", err)
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return 0, fmt.Errorf("store: usage increment cancelled: %w", err)
		}
	}
	return 0, fmt.Errorf("store: usage increment: max retries exceeded")
}

// isBusy reports whether err indicates an SQLITE_BUSY condition.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
