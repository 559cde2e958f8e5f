package httpapi

import "exam-flashcards/internal/quiz"

type examsResponse struct {
	Exams []string `json:"exams"`
}

type questionResponse struct {
	ID      int           `json:"id"`
	Text    string        `json:"question"`
	Options []quiz.Option `json:"options"`
}

type feedbackResponse struct {
	ChosenOptionKey  string `json:"chosen_option_key"`
	ChosenOptionText string `json:"chosen_option_text"`
	IsCorrect        bool   `json:"is_correct"`
	CorrectOptionKey string `json:"correct_option_key"`
	Explanation      string `json:"explanation,omitempty"`
}

type cardResponse struct {
	Exam     string            `json:"exam"`
	Number   int               `json:"number"`
	Total    int               `json:"total"`
	Question questionResponse  `json:"question"`
	Feedback *feedbackResponse `json:"feedback,omitempty"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type nextResponse struct {
	Completed bool          `json:"completed"`
	Message   string        `json:"message,omitempty"`
	Card      *cardResponse `json:"card,omitempty"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Exam     string `json:"exam,omitempty"`
}
