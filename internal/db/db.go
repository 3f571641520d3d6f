// Package db is the hook's local journal: every normalized event is appended
// to a sqlite table so the feed can be inspected after the fact.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zsprackett/claude-viz/internal/events"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, err
	}
	// Several hook processes may append at once.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}
	return &DB{sql: conn}, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) Migrate() error {
	_, err := d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}

	_, err = d.sql.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY,
			event_id   TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			type       TEXT NOT NULL,
			hook_type  TEXT NOT NULL DEFAULT '',
			payload    TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create events: %w", err)
	}

	if _, err := d.sql.Exec(`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id, ts DESC)`); err != nil {
		return fmt.Errorf("index events: %w", err)
	}
	return nil
}

// AppendEvent stores e as its JSON encoding.
func (d *DB) AppendEvent(e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = d.sql.Exec(
		`INSERT INTO events (event_id, ts, session_id, type, hook_type, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.SessionID, string(e.Kind()), e.HookType, string(payload),
	)
	if err != nil {
		return err
	}
	return d.Touch()
}

// RecentEvents returns up to limit of the newest journaled events, oldest
// first. An empty sessionID matches all sessions.
func (d *DB) RecentEvents(sessionID string, limit int) ([]events.Event, error) {
	rows, err := d.sql.Query(
		`SELECT payload
		 FROM events
		 WHERE ? = '' OR session_id = ?
		 ORDER BY ts DESC, id DESC
		 LIMIT ?`,
		sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []events.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		e, err := events.Parse([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode journaled event: %w", err)
		}
		evs = append(evs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(evs)
	return evs, nil
}

func (d *DB) SetMeta(key, value string) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?,?)", key, value)
	return err
}

func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.sql.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (d *DB) Touch() error {
	return d.SetMeta("last_modified", fmt.Sprintf("%d", time.Now().UnixMilli()))
}

// LastModified is the time of the last append, zero if the journal is empty.
func (d *DB) LastModified() time.Time {
	v, _ := d.GetMeta("last_modified")
	if v == "" {
		return time.Time{}
	}
	var ts int64
	fmt.Sscanf(v, "%d", &ts)
	return time.UnixMilli(ts)
}
