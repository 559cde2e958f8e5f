package sheets

import (
	"context"
	"fmt"

	"exam-flashcards/internal/quiz"
)

// UnavailableSource stands in for a client that could not be built, so every request
// fails as source unavailable instead of the process refusing to start.
type UnavailableSource struct {
	Cause error
}

func (s UnavailableSource) ListSheets(context.Context) ([]string, error) {
	return nil, s.err()
}

func (s UnavailableSource) FetchRows(_ context.Context, sheet string) ([][]string, error) {
	return nil, fmt.Errorf("worksheet %q: %w", sheet, s.err())
}

func (s UnavailableSource) err() error {
	return fmt.Errorf("%w: sheets client not configured: %v", quiz.ErrSourceUnavailable, s.Cause)
}
