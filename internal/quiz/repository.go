package quiz

import "context"

// Source is the external tabular content provider. Implementations should wrap the
// category sentinels (ErrNotFound, ErrRateLimited, ErrSourceUnavailable, ...) so failures
// can be told apart; anything else is treated as ErrUnexpected.
type Source interface {
	ListSheets(ctx context.Context) ([]string, error)
	FetchRows(ctx context.Context, sheet string) ([][]string, error)
}

// ExamProvider is what the session state machine needs from the exam cache.
type ExamProvider interface {
	Get(ctx context.Context, exam string) ([]Question, error)
	ListExamNames(ctx context.Context) ([]string, error)
}

// SessionStore is opaque per-user persistence. Get reports ok=false for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID string, payload []byte) error
	Delete(ctx context.Context, sessionID string) error
}
