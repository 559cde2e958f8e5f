package quiz

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error categories. Every error returned by ExamCache and Service matches exactly one of
// these with errors.Is.
var (
	ErrSourceUnavailable   = errors.New("content source unavailable")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrMalformedContent    = errors.New("malformed content")
	ErrInvalidSessionState = errors.New("invalid session state")
	ErrUnexpected          = errors.New("unexpected source error")
)

var (
	ErrInsufficientData = errors.New("sheet needs a header row and at least one data row")
	ErrMissingHeaders   = errors.New("missing required header columns")
	ErrNoValidQuestions = errors.New("no valid questions")

	ErrInvalidPosition = errors.New("position outside question order")
	ErrStaleIndex      = errors.New("question index outside current exam data")
	ErrNotActive       = errors.New("no active exam")
)

var categories = []error{
	ErrSourceUnavailable,
	ErrNotFound,
	ErrRateLimited,
	ErrMalformedContent,
	ErrInvalidSessionState,
	ErrUnexpected,
}

// Error ties a failure to the exam it happened for.
type Error struct {
	Category error
	Exam     string
	Err      error
}

func (e *Error) Error() string {
	detail := e.Category.Error()
	if e.Err != nil && e.Err != e.Category {
		detail = e.Err.Error()
	}
	if e.Exam == "" {
		return detail
	}
	return fmt.Sprintf("exam %q: %s", e.Exam, detail)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil || e.Err == e.Category {
		return []error{e.Category}
	}
	return []error{e.Category, e.Err}
}

// Category reports which category err belongs to, or nil when err is nil.
func Category(err error) error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) && qe.Category != nil {
		return qe.Category
	}
	for _, category := range categories {
		if errors.Is(err, category) {
			return category
		}
	}
	return ErrUnexpected
}

func newError(category error, exam string, err error) *Error {
	return &Error{Category: category, Exam: exam, Err: err}
}

// classifySourceError turns whatever a Source returned into a categorized *Error.
func classifySourceError(exam string, err error) *Error {
	var qe *Error
	if errors.As(err, &qe) {
		if qe.Exam == "" {
			return newError(qe.Category, exam, qe.Err)
		}
		return qe
	}

	for _, category := range categories {
		if errors.Is(err, category) {
			return newError(category, exam, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return newError(ErrSourceUnavailable, exam, err)
	}
	return newError(ErrUnexpected, exam, err)
}
