package httpapi

import (
	"log/slog"

	"exam-flashcards/internal/quiz"
)

type API struct {
	service *quiz.Service
	store   quiz.SessionStore
	cookies *SessionCookies
	logger  *slog.Logger
}

func NewAPI(service *quiz.Service, store quiz.SessionStore, cookies *SessionCookies, logger *slog.Logger) *API {
	if store == nil {
		store = quiz.NewMemoryStore()
	}
	if cookies == nil {
		cookies = NewSessionCookies("", 0, false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		service: service,
		store:   store,
		cookies: cookies,
		logger:  logger.With("component", "httpapi"),
	}
}
