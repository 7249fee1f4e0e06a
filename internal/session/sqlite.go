package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	query      TEXT NOT NULL,
	answer     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
`

// SQLiteStore persists session history in a SQLite database, so
// conversations survive process restarts.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

// NewSQLiteStore opens (or creates) the database at path and prepares
// the schema. WAL mode keeps concurrent session appends from blocking
// readers. A max of 0 or below selects DefaultMaxExchanges.
func NewSQLiteStore(path string, max int) (*SQLiteStore, error) {
	if max <= 0 {
		max = DefaultMaxExchanges
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare session schema: %w", err)
	}

	return &SQLiteStore{db: db, max: max}, nil
}

// Append inserts the exchange and trims the session down to the bound
// in the same transaction, so readers never observe an over-long
// history.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, exchange Exchange) error {
	createdAt := exchange.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchanges (session_id, query, answer, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, exchange.Query, exchange.Answer, createdAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM exchanges
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM exchanges WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)
	`, sessionID, sessionID, s.max)
	if err != nil {
		return fmt.Errorf("trim session: %w", err)
	}

	return tx.Commit()
}

// Exchanges returns the retained history, oldest first.
func (s *SQLiteStore) Exchanges(ctx context.Context, sessionID string) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, answer, created_at FROM exchanges
		WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var history []Exchange
	for rows.Next() {
		var ex Exchange
		var createdAt string
		if err := rows.Scan(&ex.Query, &ex.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		history = append(history, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session %s: %w", sessionID, err)
	}
	return history, nil
}

// Clear deletes the session's rows.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
