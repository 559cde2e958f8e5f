package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (s *SessionStore) Get(ctx context.Context, sessionID string) ([]byte, bool, error) {
	var (
		payload   []byte
		updatedAt int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT payload, updated_at_unix FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if s.expired(updatedAt) {
		return nil, false, nil
	}
	return payload, true, nil
}

// Set overwrites the whole session document; the store never merges fields.
func (s *SessionStore) Set(ctx context.Context, sessionID string, payload []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (session_id, payload, updated_at_unix)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at_unix = excluded.updated_at_unix`,
		sessionID,
		payload,
		s.now().UTC().UnixNano(),
	)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

// PurgeExpired removes sessions past the TTL and reports how many were deleted.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.ttl).UnixNano()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at_unix < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SessionStore) expired(updatedAtUnix int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().UTC().Sub(time.Unix(0, updatedAtUnix)) > s.ttl
}
