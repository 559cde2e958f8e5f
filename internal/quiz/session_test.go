package quiz

import (
	"context"
	"errors"
	"testing"
)

type fakeExams struct {
	questions map[string][]Question
	err       error
	getCalls  int
}

func (f *fakeExams) Get(_ context.Context, exam string) ([]Question, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	questions, ok := f.questions[exam]
	if !ok {
		return nil, newError(ErrNotFound, exam, nil)
	}
	return questions, nil
}

func (f *fakeExams) ListExamNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.questions))
	for name := range f.questions {
		names = append(names, name)
	}
	return names, nil
}

func makeQuestions(n int) []Question {
	questions := make([]Question, n)
	for idx := range questions {
		questions[idx] = Question{
			ID:   idx,
			Text: "Question",
			Options: []Option{
				{Letter: "A", Text: "one"},
				{Letter: "B", Text: "two"},
				{Letter: "C", Text: "three"},
				{Letter: "D", Text: "four"},
			},
			CorrectOptionKey: "A",
		}
	}
	return questions
}

func identityPerm(n int) []int {
	order := make([]int, n)
	for idx := range order {
		order[idx] = idx
	}
	return order
}

func newTestService(exams ExamProvider) *Service {
	service := NewService(exams, nil)
	service.perm = identityPerm
	return service
}

func TestServiceStartBuildsPermutationAndClearsFeedback(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(5)}}
	service := NewService(exams, nil)

	session := Session{Feedback: map[int]Feedback{3: {ChosenOptionKey: "A"}}}
	if err := service.Start(context.Background(), &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session.State != StateActive || session.ExamName != "Algebra1" || session.Position != 0 {
		t.Fatalf("unexpected session after start: %+v", session)
	}
	if len(session.Feedback) != 0 {
		t.Fatalf("expected feedback cleared, got %+v", session.Feedback)
	}

	seen := make(map[int]bool, 5)
	for _, idx := range session.QuestionOrder {
		if idx < 0 || idx >= 5 || seen[idx] {
			t.Fatalf("question order is not a permutation: %v", session.QuestionOrder)
		}
		seen[idx] = true
	}
	if len(seen) != 5 {
		t.Fatalf("question order has %d entries, want 5", len(seen))
	}
}

func TestServiceStartFailureLeavesSessionUntouched(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Empty": {}}}
	service := newTestService(exams)

	session := Session{State: StateCompleted}
	err := service.Start(context.Background(), &session, "Missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if session.State != StateCompleted {
		t.Fatalf("session mutated on failed start: %+v", session)
	}

	err = service.Start(context.Background(), &session, "Empty")
	if !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("expected no valid questions, got %v", err)
	}

	exams.err = newError(ErrRateLimited, "Algebra1", nil)
	err = service.Start(context.Background(), &session, "Algebra1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if session.State != StateCompleted {
		t.Fatalf("session mutated on failed start: %+v", session)
	}
}

func TestServiceProgressionCompletesAfterLastQuestion(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(3)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	feedback, err := service.Answer(ctx, &session, "C")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if feedback == nil || feedback.IsCorrect || feedback.ChosenOptionText != "three" {
		t.Fatalf("unexpected feedback: %+v", feedback)
	}
	if session.Position != 0 {
		t.Fatalf("Answer must not advance, position=%d", session.Position)
	}

	for step := 1; step <= 2; step++ {
		done, err := service.Advance(ctx, &session)
		if err != nil || done {
			t.Fatalf("Advance %d = (%t, %v), want (false, nil)", step, done, err)
		}
		if session.Position != step {
			t.Fatalf("position = %d, want %d", session.Position, step)
		}
	}

	done, err := service.Advance(ctx, &session)
	if err != nil {
		t.Fatalf("final Advance failed: %v", err)
	}
	if !done || session.State != StateCompleted {
		t.Fatalf("expected completion, got done=%t session=%+v", done, session)
	}
	if session.ExamName != "" || session.QuestionOrder != nil || session.Position != 0 {
		t.Fatalf("active fields not cleared: %+v", session)
	}

	if _, err := service.Current(ctx, session); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Current after completion = %v, want ErrNotActive", err)
	}
	if _, err := service.Advance(ctx, &session); !errors.Is(err, ErrInvalidSessionState) {
		t.Fatalf("Advance after completion = %v, want invalid session state", err)
	}
}

func TestServiceAdvanceClearsFeedbackForCurrentQuestion(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(3)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := service.Answer(ctx, &session, "A"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	card, err := service.Current(ctx, session)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if card.Feedback == nil || !card.Feedback.IsCorrect {
		t.Fatalf("expected recorded correct feedback, got %+v", card.Feedback)
	}

	if _, err := service.Advance(ctx, &session); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// Step back to the answered card.
	session.Position = 0
	card, err = service.Current(ctx, session)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if card.Feedback != nil {
		t.Fatalf("expected feedback cleared after advance, got %+v", card.Feedback)
	}
}

func TestServiceAnswerEmptyKeyLeavesStateUnchanged(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(2)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	feedback, err := service.Answer(ctx, &session, "  ")
	if err != nil || feedback != nil {
		t.Fatalf("Answer(empty) = (%+v, %v), want (nil, nil)", feedback, err)
	}
	if len(session.Feedback) != 0 || session.Position != 0 {
		t.Fatalf("session changed on empty answer: %+v", session)
	}
}

func TestServiceAnswerOverwritesAndHandlesUnknownKey(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(1)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := service.Answer(ctx, &session, "b"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	feedback, err := service.Answer(ctx, &session, "Z")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if feedback.ChosenOptionKey != "Z" || feedback.ChosenOptionText != unknownOptionText || feedback.IsCorrect {
		t.Fatalf("unexpected feedback for unknown key: %+v", feedback)
	}
	if got := session.Feedback[0]; got != *feedback {
		t.Fatalf("feedback not overwritten: %+v", got)
	}
}

func TestServiceCurrentDetectsInvalidPositionAndStaleIndex(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(3)}}
	service := newTestService(exams)
	ctx := context.Background()

	session := Session{State: StateActive, ExamName: "Algebra1", QuestionOrder: []int{0, 1, 2}, Position: 3}
	if _, err := service.Current(ctx, session); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("Current = %v, want ErrInvalidPosition", err)
	}

	// The sheet shrank since the session started.
	exams.questions["Algebra1"] = makeQuestions(2)
	session.Position = 2
	_, err := service.Current(ctx, session)
	if !errors.Is(err, ErrStaleIndex) || !errors.Is(err, ErrInvalidSessionState) {
		t.Fatalf("Current = %v, want stale index", err)
	}
	if _, err := service.Answer(ctx, &session, "A"); !errors.Is(err, ErrStaleIndex) {
		t.Fatalf("Answer = %v, want stale index", err)
	}

	done, err := service.Advance(ctx, &session)
	if err != nil || !done {
		t.Fatalf("Advance past stale card = (%t, %v), want (true, nil)", done, err)
	}
}

func TestServiceCurrentReflectsCacheRefresh(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(2)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	updated := makeQuestions(2)
	updated[0].Text = "Updated"
	exams.questions["Algebra1"] = updated

	card, err := service.Current(ctx, session)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if card.Question.Text != "Updated" {
		t.Fatalf("expected live data, got %q", card.Question.Text)
	}
	if card.Total != 2 || card.Position != 0 || card.Exam != "Algebra1" {
		t.Fatalf("unexpected card: %+v", card)
	}
}

func TestServiceShuffleIsUniform(t *testing.T) {
	const (
		n      = 4
		trials = 20000
	)
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(n)}}
	service := NewService(exams, nil)

	counts := make([]int, n)
	for trial := 0; trial < trials; trial++ {
		var session Session
		if err := service.Start(context.Background(), &session, "Algebra1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		counts[session.QuestionOrder[0]]++
	}

	expected := float64(trials) / n
	for idx, count := range counts {
		deviation := (float64(count) - expected) / expected
		if deviation < -0.05 || deviation > 0.05 {
			t.Fatalf("index %d appeared first %d times, expected about %.0f (counts=%v)", idx, count, expected, counts)
		}
	}
}

func TestServiceAlgebraEndToEnd(t *testing.T) {
	source := newFakeSource()
	source.rowsBySheet["Algebra1"] = [][]string{
		{"Question", "Answer A", "Answer B", "Answer C", "Answer D", "Correct Answer"},
		{"2+2?", "3", "4", "5", "6", "B"},
		{"", "a", "b", "c", "d", "A"},
	}
	cache := newTestCache(source, newFakeClock())
	service := NewService(cache, nil)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	card, err := service.Current(ctx, session)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if card.Total != 1 || card.Question.ID != 0 || card.Question.CorrectOptionKey != "B" {
		t.Fatalf("unexpected card: %+v", card)
	}

	feedback, err := service.Answer(ctx, &session, "B")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !feedback.IsCorrect || feedback.ChosenOptionText != "4" {
		t.Fatalf("unexpected feedback: %+v", feedback)
	}

	done, err := service.Advance(ctx, &session)
	if err != nil || !done {
		t.Fatalf("Advance = (%t, %v), want (true, nil)", done, err)
	}
	if got := source.fetchCalls.Load(); got != 1 {
		t.Fatalf("expected a single source fetch across the session, got %d", got)
	}
}

func TestLoadAndSaveSessionRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	loaded, err := LoadSession(ctx, store, "missing")
	if err != nil || loaded.State != StateUnstarted {
		t.Fatalf("LoadSession(missing) = (%+v, %v), want unstarted", loaded, err)
	}

	session := Session{
		State:         StateActive,
		ExamName:      "Algebra1",
		QuestionOrder: []int{2, 0, 1},
		Position:      1,
		Feedback:      map[int]Feedback{0: {ChosenOptionKey: "B", ChosenOptionText: "4", IsCorrect: true}},
	}
	if err := SaveSession(ctx, store, "sid", session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	loaded, err = LoadSession(ctx, store, "sid")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded.ExamName != "Algebra1" || loaded.Position != 1 || len(loaded.QuestionOrder) != 3 || !loaded.Feedback[0].IsCorrect {
		t.Fatalf("unexpected loaded session: %+v", loaded)
	}

	if err := store.Set(ctx, "garbage", []byte("not-json")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	loaded, err = LoadSession(ctx, store, "garbage")
	if err != nil || loaded.State != StateUnstarted {
		t.Fatalf("LoadSession(garbage) = (%+v, %v), want unstarted", loaded, err)
	}
}

func TestServiceResetReturnsToSelection(t *testing.T) {
	exams := &fakeExams{questions: map[string][]Question{"Algebra1": makeQuestions(2)}}
	service := newTestService(exams)
	ctx := context.Background()

	var session Session
	if err := service.Start(ctx, &session, "Algebra1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := service.Answer(ctx, &session, "A"); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	service.Reset(&session)
	if session.State != StateUnstarted || session.ExamName != "" || len(session.Feedback) != 0 {
		t.Fatalf("unexpected session after reset: %+v", session)
	}
	if _, err := service.Current(ctx, session); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Current after reset = %v, want ErrNotActive", err)
	}
}
