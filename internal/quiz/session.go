package quiz

import (
	"context"
	"encoding/json"
	"fmt"
)

type State string

const (
	StateUnstarted State = "unstarted"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Feedback is derived from an answer; it is only built by Service.Answer.
type Feedback struct {
	ChosenOptionKey  string `json:"chosen_option_key"`
	ChosenOptionText string `json:"chosen_option_text"`
	IsCorrect        bool   `json:"is_correct"`
}

// Session is one user's pass through an exam. It is stored as a single JSON document.
type Session struct {
	State         State            `json:"state"`
	ExamName      string           `json:"exam_name,omitempty"`
	QuestionOrder []int            `json:"question_order,omitempty"`
	Position      int              `json:"position"`
	Feedback      map[int]Feedback `json:"feedback,omitempty"`
}

// Card is the question currently shown to the user.
type Card struct {
	Exam     string
	Position int
	Total    int
	Question Question
	Feedback *Feedback
}

func (s *Session) Active() bool {
	return s != nil && s.State == StateActive
}

func (s *Session) clearExam() {
	s.ExamName = ""
	s.QuestionOrder = nil
	s.Position = 0
}

// LoadSession reads a session. Missing or unreadable payloads yield an unstarted session.
func LoadSession(ctx context.Context, store SessionStore, sessionID string) (Session, error) {
	payload, ok, err := store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Session{State: StateUnstarted}, nil
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil || session.State == "" {
		return Session{State: StateUnstarted}, nil
	}
	return session, nil
}

func SaveSession(ctx context.Context, store SessionStore, sessionID string, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := store.Set(ctx, sessionID, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
