package session

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/weavehq/weave/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	workspace TEXT PRIMARY KEY,
	doc       BLOB NOT NULL,
	updated   TEXT NOT NULL DEFAULT (datetime('now'))
);`

// SQLiteStore is a durable Store backed by a single-file SQLite database.
// Each session is one row holding its full JSON document; the upsert on save
// keeps the write path a single statement.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// ensures the schema. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	// Session writes are serialized by the workspace; one connection avoids
	// SQLITE_BUSY on concurrent test access.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(workspace string) (*core.Session, error) {
	var doc []byte
	err := s.db.QueryRow(
		`SELECT doc FROM sessions WHERE workspace = ?`, workspace,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", workspace, err)
	}
	return decodeSession(workspace, doc)
}

// Save implements Store.
func (s *SQLiteStore) Save(sess *core.Session) error {
	doc, err := encodeSession(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.WorkspaceName, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (workspace, doc, updated) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(workspace) DO UPDATE SET doc = excluded.doc, updated = excluded.updated`,
		sess.WorkspaceName, doc,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.WorkspaceName, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(workspace string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE workspace = ?`, workspace); err != nil {
		return fmt.Errorf("delete session %s: %w", workspace, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
