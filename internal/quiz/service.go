package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// unknownOptionText is reported when the chosen key has no option in the sheet.
const unknownOptionText = "N/A"

// Service drives the session state machine against the exam cache.
type Service struct {
	exams  ExamProvider
	perm   func(n int) []int
	logger *slog.Logger
}

func NewService(exams ExamProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		exams:  exams,
		perm:   rand.Perm,
		logger: logger.With("component", "quiz_service"),
	}
}

func (s *Service) ListExams(ctx context.Context) ([]string, error) {
	return s.exams.ListExamNames(ctx)
}

// Start begins a fresh pass over exam in a uniformly shuffled order. On failure the
// session is left untouched.
func (s *Service) Start(ctx context.Context, session *Session, exam string) error {
	questions, err := s.exams.Get(ctx, exam)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return newError(ErrMalformedContent, exam, ErrNoValidQuestions)
	}

	*session = Session{
		State:         StateActive,
		ExamName:      exam,
		QuestionOrder: s.perm(len(questions)),
		Position:      0,
	}
	s.logger.Info("started exam", "exam", exam, "questions", len(questions))
	return nil
}

// Current resolves the question at the session position against the live exam data.
func (s *Service) Current(ctx context.Context, session Session) (Card, error) {
	question, err := s.resolve(ctx, session)
	if err != nil {
		return Card{}, err
	}

	card := Card{
		Exam:     session.ExamName,
		Position: session.Position,
		Total:    len(session.QuestionOrder),
		Question: question,
	}
	if feedback, ok := session.Feedback[question.ID]; ok {
		card.Feedback = &feedback
	}
	return card, nil
}

// Answer records feedback for the current question. chosen is trimmed and uppercased
// before it is compared with CorrectOptionKey, which ParseRows normalizes the same way.
// An empty key leaves the session unchanged and returns a nil feedback.
func (s *Service) Answer(ctx context.Context, session *Session, chosen string) (*Feedback, error) {
	question, err := s.resolve(ctx, *session)
	if err != nil {
		return nil, err
	}

	letter := NormalizeLetter(chosen)
	if letter == "" {
		s.logger.Warn("no answer submitted", "exam", session.ExamName, "position", session.Position)
		return nil, nil
	}

	text, ok := question.OptionText(letter)
	if !ok {
		text = unknownOptionText
	}
	feedback := Feedback{
		ChosenOptionKey:  letter,
		ChosenOptionText: text,
		IsCorrect:        letter == question.CorrectOptionKey,
	}
	if session.Feedback == nil {
		session.Feedback = make(map[int]Feedback)
	}
	session.Feedback[question.ID] = feedback

	s.logger.Info("answer submitted",
		"exam", session.ExamName,
		"question_id", question.ID,
		"position", session.Position,
		"chosen", letter,
		"correct", feedback.IsCorrect,
	)
	return &feedback, nil
}

// Advance acknowledges the current question and moves on. It reports true when the deck
// is exhausted and the session has completed.
func (s *Service) Advance(ctx context.Context, session *Session) (bool, error) {
	if !session.Active() {
		return false, newError(ErrInvalidSessionState, "", ErrNotActive)
	}
	if session.Position < 0 || session.Position >= len(session.QuestionOrder) {
		return false, newError(ErrInvalidSessionState, session.ExamName, ErrInvalidPosition)
	}

	questions, err := s.exams.Get(ctx, session.ExamName)
	if err != nil {
		return false, err
	}
	// A stale index has nothing to clear but must not trap the user on this card.
	if idx := session.QuestionOrder[session.Position]; idx >= 0 && idx < len(questions) {
		delete(session.Feedback, questions[idx].ID)
	}

	if session.Position+1 < len(session.QuestionOrder) {
		session.Position++
		s.logger.Info("moved to next question", "exam", session.ExamName, "position", session.Position)
		return false, nil
	}

	s.logger.Info("completed all questions", "exam", session.ExamName)
	session.clearExam()
	session.Feedback = nil
	session.State = StateCompleted
	return true, nil
}

// Reset returns the user to exam selection.
func (s *Service) Reset(session *Session) {
	*session = Session{State: StateUnstarted}
}

func (s *Service) resolve(ctx context.Context, session Session) (Question, error) {
	if !session.Active() {
		return Question{}, newError(ErrInvalidSessionState, "", ErrNotActive)
	}
	if session.Position < 0 || session.Position >= len(session.QuestionOrder) {
		return Question{}, newError(ErrInvalidSessionState, session.ExamName,
			fmt.Errorf("%w: position %d of %d", ErrInvalidPosition, session.Position, len(session.QuestionOrder)))
	}

	questions, err := s.exams.Get(ctx, session.ExamName)
	if err != nil {
		return Question{}, err
	}

	idx := session.QuestionOrder[session.Position]
	if idx < 0 || idx >= len(questions) {
		return Question{}, newError(ErrInvalidSessionState, session.ExamName,
			fmt.Errorf("%w: index %d of %d", ErrStaleIndex, idx, len(questions)))
	}
	return questions[idx], nil
}
