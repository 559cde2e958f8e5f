package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"exam-flashcards/internal/quiz"
)

// retryAfterSeconds is suggested to clients after a quota error.
const retryAfterSeconds = 60

func writeServiceError(w http.ResponseWriter, err error) {
	category := quiz.Category(err)

	var qe *quiz.Error
	exam := ""
	if errors.As(err, &qe) {
		exam = qe.Exam
	}

	payload := errorResponse{
		Error:    err.Error(),
		Category: categoryName(category),
		Exam:     exam,
	}

	switch category {
	case quiz.ErrNotFound:
		writeJSON(w, http.StatusNotFound, payload)
	case quiz.ErrRateLimited:
		if exam != "" {
			payload.Error = fmt.Sprintf("Quota exceeded while loading exam %q. Please try again shortly.", exam)
		} else {
			payload.Error = "Quota exceeded while fetching the list of exams. Please try again shortly."
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeJSON(w, http.StatusTooManyRequests, payload)
	case quiz.ErrSourceUnavailable:
		writeJSON(w, http.StatusBadGateway, payload)
	case quiz.ErrMalformedContent:
		writeJSON(w, http.StatusUnprocessableEntity, payload)
	case quiz.ErrInvalidSessionState:
		writeJSON(w, http.StatusConflict, payload)
	default:
		writeJSON(w, http.StatusInternalServerError, payload)
	}
}

func categoryName(category error) string {
	switch category {
	case quiz.ErrNotFound:
		return "not_found"
	case quiz.ErrRateLimited:
		return "rate_limited"
	case quiz.ErrSourceUnavailable:
		return "source_unavailable"
	case quiz.ErrMalformedContent:
		return "malformed_content"
	case quiz.ErrInvalidSessionState:
		return "invalid_session_state"
	default:
		return "other"
	}
}

func toCardResponse(card quiz.Card) cardResponse {
	response := cardResponse{
		Exam:   card.Exam,
		Number: card.Position + 1,
		Total:  card.Total,
		Question: questionResponse{
			ID:      card.Question.ID,
			Text:    card.Question.Text,
			Options: card.Question.Options,
		},
	}
	// The answer key is only revealed once the card has been answered.
	if card.Feedback != nil {
		response.Feedback = &feedbackResponse{
			ChosenOptionKey:  card.Feedback.ChosenOptionKey,
			ChosenOptionText: card.Feedback.ChosenOptionText,
			IsCorrect:        card.Feedback.IsCorrect,
			CorrectOptionKey: card.Question.CorrectOptionKey,
			Explanation:      card.Question.Explanation(card.Feedback.IsCorrect),
		}
	}
	return response
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
