package quiz

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	// ShortErrorTTL bounds how long a non-quota failure is served before a retry.
	ShortErrorTTL = 60 * time.Second
	// ReservedSheetPrefix marks metadata tabs that are never listed as exams.
	ReservedSheetPrefix = "_"
)

type CacheConfig struct {
	TTL      time.Duration
	ErrorTTL time.Duration
	// SingleFlight collapses concurrent refreshes of the same exam into one source call.
	SingleFlight bool
	Now          func() time.Time
	Logger       *slog.Logger
}

// cacheEntry is immutable once stored; refreshes replace the pointer.
type cacheEntry struct {
	fetchedAt time.Time
	questions []Question
	err       error
}

func (e *cacheEntry) fresh(now time.Time, ttl, errorTTL time.Duration) bool {
	if e == nil {
		return false
	}
	age := now.Sub(e.fetchedAt)
	if age >= ttl {
		return false
	}
	if e.err == nil || errors.Is(e.err, ErrRateLimited) {
		return true
	}
	return age < errorTTL
}

// ExamCache serves parsed exams from memory and is the only caller of the Source.
type ExamCache struct {
	source   Source
	ttl      time.Duration
	errorTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	group    *singleflight.Group

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func NewExamCache(source Source, cfg CacheConfig) *ExamCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	errorTTL := cfg.ErrorTTL
	if errorTTL <= 0 {
		errorTTL = ShortErrorTTL
	}
	if errorTTL > ttl {
		errorTTL = ttl
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := &ExamCache{
		source:   source,
		ttl:      ttl,
		errorTTL: errorTTL,
		now:      now,
		logger:   logger.With("component", "exam_cache"),
		entries:  make(map[string]*cacheEntry),
	}
	if cfg.SingleFlight {
		cache.group = &singleflight.Group{}
	}
	return cache
}

// Get returns the questions for exam. The returned slice is shared and must be treated as
// read-only. A non-nil error is always a *Error.
func (c *ExamCache) Get(ctx context.Context, exam string) ([]Question, error) {
	now := c.now()

	c.mu.RLock()
	entry := c.entries[exam]
	c.mu.RUnlock()

	if entry.fresh(now, c.ttl, c.errorTTL) {
		c.logger.Debug("serving exam from cache", "exam", exam, "fetched_at", entry.fetchedAt, "error", entry.err != nil)
		return entry.questions, entry.err
	}

	c.logger.Info("cache expired or not found, fetching exam", "exam", exam)
	if c.group == nil {
		entry = c.refresh(ctx, exam, now)
		return entry.questions, entry.err
	}

	result, _, _ := c.group.Do(exam, func() (any, error) {
		return c.refresh(ctx, exam, now), nil
	})
	entry = result.(*cacheEntry)
	return entry.questions, entry.err
}

// refresh fetches and parses without holding the lock, then swaps the entry in.
func (c *ExamCache) refresh(ctx context.Context, exam string, startedAt time.Time) *cacheEntry {
	// Caller cancellation must not be memoized as a source failure for other users;
	// the source enforces its own timeout.
	ctx = context.WithoutCancel(ctx)

	entry := &cacheEntry{fetchedAt: startedAt}
	rows, err := c.source.FetchRows(ctx, exam)
	if err != nil {
		entry.err = classifySourceError(exam, err)
	} else {
		questions, skipped, parseErr := ParseRows(rows)
		if skipped > 0 {
			c.logger.Warn("skipped rows with empty question or correct answer", "exam", exam, "skipped", skipped)
		}
		if parseErr != nil {
			entry.err = newError(ErrMalformedContent, exam, parseErr)
		} else {
			entry.questions = questions
			c.logger.Info("parsed exam questions", "exam", exam, "questions", len(questions))
		}
	}

	c.mu.Lock()
	c.entries[exam] = entry
	c.mu.Unlock()

	c.logger.Info("updated exam cache", "exam", exam, "error", entry.err != nil)
	if entry.err != nil {
		c.logger.Error("exam fetch failed", "exam", exam, "err", entry.err)
	}
	return entry
}

// ListExamNames enumerates sheets on every call and drops reserved tabs.
func (c *ExamCache) ListExamNames(ctx context.Context) ([]string, error) {
	titles, err := c.source.ListSheets(ctx)
	if err != nil {
		qe := classifySourceError("", err)
		c.logger.Error("listing exam sheets failed", "err", qe)
		return nil, qe
	}
	c.logger.Debug("retrieved sheet titles", "titles", titles)

	exams := make([]string, 0, len(titles))
	for _, title := range titles {
		if strings.HasPrefix(title, ReservedSheetPrefix) {
			continue
		}
		exams = append(exams, title)
	}
	c.logger.Info("filtered exam titles", "exams", exams)
	return exams, nil
}
