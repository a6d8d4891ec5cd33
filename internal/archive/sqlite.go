package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

// SQLiteSink implements Sink using SQLite.
type SQLiteSink struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteSink creates a new SQLite-based archive.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sink := &SQLiteSink{db: db}
	if err := sink.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return sink, nil
}

func (s *SQLiteSink) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		action TEXT,
		value REAL,
		location TEXT,
		actor_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_session_id ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one event under the given session.
func (s *SQLiteSink) Record(ctx context.Context, sessionID string, ev stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ts int64
	if !ev.Timestamp.IsZero() {
		ts = ev.Timestamp.UnixNano()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (session_id, event_id, timestamp, event_type, action, value, location, actor_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sessionID, ev.ID, ts, string(ev.Type), ev.Action, ev.Value, ev.Location, ev.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// BySession retrieves all events recorded for a session, oldest first.
func (s *SQLiteSink) BySession(ctx context.Context, sessionID string) ([]stream.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT event_id, timestamp, event_type, action, value, location, actor_id FROM events WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []stream.Event
	for rows.Next() {
		var ev stream.Event
		var ts int64
		var eventType string
		if err := rows.Scan(&ev.ID, &ts, &eventType, &ev.Action, &ev.Value, &ev.Location, &ev.ActorID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = stream.EventType(eventType)
		if ts != 0 {
			ev.Timestamp = time.Unix(0, ts)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
