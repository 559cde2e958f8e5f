package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SessionStore persists serialized quiz sessions in SQLite.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore opens path and creates the schema. Sessions untouched for longer than
// ttl are treated as missing; ttl <= 0 keeps them forever.
func NewSessionStore(path string, ttl time.Duration) (*SessionStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "sessions.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &SessionStore{db: db, ttl: ttl, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}
