package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	time       INTEGER NOT NULL,
	operation  TEXT NOT NULL,
	symbol     TEXT,
	params     TEXT,
	outcome    TEXT NOT NULL,
	error_kind TEXT,
	error_msg  TEXT,
	order_id   INTEGER
);
CREATE INDEX IF NOT EXISTS idx_audit_events_symbol_time ON audit_events(symbol, time);
`

// SQLiteStore persists audit events to a local database. It satisfies
// Sink and also supports querying recent events for the CLI.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the audit database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record inserts one event
func (s *SQLiteStore) Record(event Event) error {
	var params []byte
	if len(event.Params) > 0 {
		var err error
		params, err = json.Marshal(event.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
	}

	query := `INSERT INTO audit_events (time, operation, symbol, params, outcome, error_kind, error_msg, order_id)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		event.Time.UnixNano(),
		event.Operation,
		event.Symbol,
		string(params),
		string(event.Outcome),
		event.ErrorKind,
		event.ErrorMsg,
		event.OrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events for symbol, newest first. An empty
// symbol returns events across all symbols.
func (s *SQLiteStore) Recent(ctx context.Context, symbol string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT time, operation, symbol, params, outcome, error_kind, error_msg, order_id
	          FROM audit_events`
	args := []interface{}{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			unixNano int64
			params   sql.NullString
		)
		if err := rows.Scan(&unixNano, &ev.Operation, &ev.Symbol, &params,
			&ev.Outcome, &ev.ErrorKind, &ev.ErrorMsg, &ev.OrderID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Time = time.Unix(0, unixNano)
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &ev.Params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal params: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
