package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver registration
)

// Event categories, matching the levels the monitor writes.
const (
	CategorySystem      = "SYSTEM"
	CategoryInfo        = "INFO"
	CategoryWarning     = "WARNING"
	CategoryError       = "ERROR"
	CategoryCritical    = "CRITICAL"
	CategoryAlarm       = "ALARM"
	CategorySecurity    = "SECURITY"
	CategoryAlarmConfig = "ALARM_CONFIG"
)

// Entry is a single event-log record.
type Entry struct {
	// ID is the monotonically increasing record id.
	ID int64
	// TS is when the event was appended.
	TS time.Time
	// Category classifies the event (see the Category constants).
	Category string
	// Message is the event text.
	Message string
}

// Store is the append-only event log backed by SQLite. The logs alarm
// resource compares its threshold against Count.
type Store struct {
	db *sql.DB
}

// Open creates or opens the event log database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir event log dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping event log: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate event log: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a new event.
func (s *Store) Append(ctx context.Context, message, category string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (ts, category, message) VALUES (?, ?, ?)`,
		time.Now().UTC(), category, message)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return nil
}

// Count returns the total number of recorded events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}

	return n, nil
}

// Recent returns up to limit newest entries, optionally filtered by a
// substring match on the message or category.
func (s *Store) Recent(ctx context.Context, limit int, search string) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, ts, category, message FROM events`

	args := make([]any, 0, 3)
	if search != "" {
		query += ` WHERE message LIKE ? OR category LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TS, &e.Category, &e.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return entries, nil
}
