package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"exam-flashcards/internal/quiz"
)

const maxAnswerBodyBytes = 4 << 10

func (a *API) HandleListExams(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	exams, err := a.service.ListExams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if exams == nil {
		exams = []string{}
	}
	writeJSON(w, http.StatusOK, examsResponse{Exams: exams})
}

func (a *API) HandleStart(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	exam := chi.URLParam(r, "exam")
	// chi matches on RawPath when it is set, so only then is the parameter still escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(exam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid exam name"})
			return
		}
		exam = unescaped
	}
	exam = strings.TrimSpace(exam)
	if exam == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exam is required"})
		return
	}

	sessionID, session, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	if err := a.service.Start(r.Context(), &session, exam); err != nil {
		writeServiceError(w, err)
		return
	}
	card, err := a.service.Current(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !a.saveSession(w, r, sessionID, session) {
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (a *API) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	_, session, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	card, err := a.service.Current(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (a *API) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	var req answerRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxAnswerBodyBytes))
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sessionID, session, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	feedback, err := a.service.Answer(r.Context(), &session, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if feedback != nil && !a.saveSession(w, r, sessionID, session) {
		return
	}

	card, err := a.service.Current(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card))
}

func (a *API) HandleNext(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	sessionID, session, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	exam := session.ExamName
	completed, err := a.service.Advance(r.Context(), &session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !a.saveSession(w, r, sessionID, session) {
		return
	}

	if completed {
		writeJSON(w, http.StatusOK, nextResponse{
			Completed: true,
			Message:   fmt.Sprintf("You've completed all questions for %s! Choose another exam.", exam),
		})
		return
	}

	card, err := a.service.Current(r.Context(), session)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response := toCardResponse(card)
	writeJSON(w, http.StatusOK, nextResponse{Card: &response})
}

func (a *API) HandleReset(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "quiz service unavailable"})
		return
	}

	sessionID, session, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	a.service.Reset(&session)
	if !a.saveSession(w, r, sessionID, session) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) loadSession(w http.ResponseWriter, r *http.Request) (string, quiz.Session, bool) {
	sessionID := sessionIDFromContext(r.Context())
	session, err := quiz.LoadSession(r.Context(), a.store, sessionID)
	if err != nil {
		a.logger.Error("load session failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load session"})
		return "", quiz.Session{}, false
	}
	return sessionID, session, true
}

func (a *API) saveSession(w http.ResponseWriter, r *http.Request, sessionID string, session quiz.Session) bool {
	if err := quiz.SaveSession(r.Context(), a.store, sessionID, session); err != nil {
		a.logger.Error("save session failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save session"})
		return false
	}
	return true
}
