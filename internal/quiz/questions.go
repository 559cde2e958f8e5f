package quiz

import (
	"fmt"
	"strings"
)

// Header vocabulary expected in row 0 of every exam sheet.
const (
	HeaderQuestion             = "Question"
	HeaderAnswerA              = "Answer A"
	HeaderAnswerB              = "Answer B"
	HeaderAnswerC              = "Answer C"
	HeaderAnswerD              = "Answer D"
	HeaderCorrectAnswer        = "Correct Answer"
	HeaderExplanationCorrect   = "Explanation-Correct"
	HeaderExplanationIncorrect = "Explanation-Incorrect"
)

// OptionLetters is the fixed option alphabet, in display order.
var OptionLetters = []string{"A", "B", "C", "D"}

var optionHeaders = []string{HeaderAnswerA, HeaderAnswerB, HeaderAnswerC, HeaderAnswerD}

type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is one parsed sheet row. ID is its position among the questions emitted by
// ParseRows, so ids are dense from 0.
type Question struct {
	ID                   int      `json:"id"`
	Text                 string   `json:"question"`
	Options              []Option `json:"options"`
	CorrectOptionKey     string   `json:"correct_option_key"`
	ExplanationCorrect   string   `json:"explanation_correct"`
	ExplanationIncorrect string   `json:"explanation_incorrect"`
}

// OptionText returns the text for letter. The correct key is not validated against the
// option alphabet, so callers must handle ok == false.
func (q Question) OptionText(letter string) (string, bool) {
	for _, option := range q.Options {
		if option.Letter == letter {
			return option.Text, true
		}
	}
	return "", false
}

// Explanation picks the explanation matching a correct or incorrect answer.
func (q Question) Explanation(correct bool) string {
	if correct {
		return q.ExplanationCorrect
	}
	return q.ExplanationIncorrect
}

type columnIndex map[string]int

func (c columnIndex) cell(row []string, header string) string {
	idx, ok := c[header]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ParseRows turns raw sheet rows into questions. Row 0 is the header. Rows with an empty
// question or correct answer are skipped and only counted in skipped.
func ParseRows(rows [][]string) (questions []Question, skipped int, err error) {
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("%w: got %d rows", ErrInsufficientData, len(rows))
	}

	header := make([]string, len(rows[0]))
	columns := make(columnIndex, len(rows[0]))
	for idx, name := range rows[0] {
		header[idx] = strings.TrimSpace(name)
		// Later duplicates win.
		columns[header[idx]] = idx
	}

	_, hasQuestion := columns[HeaderQuestion]
	_, hasCorrect := columns[HeaderCorrectAnswer]
	if !hasQuestion || !hasCorrect {
		return nil, 0, fmt.Errorf("%w: need %q and %q, found %q", ErrMissingHeaders, HeaderQuestion, HeaderCorrectAnswer, header)
	}

	questions = make([]Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		text := strings.TrimSpace(columns.cell(row, HeaderQuestion))
		correct := strings.ToUpper(strings.TrimSpace(columns.cell(row, HeaderCorrectAnswer)))
		if text == "" || correct == "" {
			skipped++
			continue
		}

		options := make([]Option, len(OptionLetters))
		for idx, letter := range OptionLetters {
			options[idx] = Option{
				Letter: letter,
				Text:   columns.cell(row, optionHeaders[idx]),
			}
		}

		questions = append(questions, Question{
			ID:                   len(questions),
			Text:                 text,
			Options:              options,
			CorrectOptionKey:     correct,
			ExplanationCorrect:   columns.cell(row, HeaderExplanationCorrect),
			ExplanationIncorrect: columns.cell(row, HeaderExplanationIncorrect),
		})
	}

	if len(questions) == 0 {
		return nil, skipped, fmt.Errorf("%w: all %d data rows were empty", ErrNoValidQuestions, skipped)
	}
	return questions, skipped, nil
}

// NormalizeLetter trims and uppercases a submitted option key.
func NormalizeLetter(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}
