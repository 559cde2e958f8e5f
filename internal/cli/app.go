package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"exam-flashcards/internal/quiz"
)

const maxAttempts = 3

type Config struct {
	Service *quiz.Service
	// Exam skips the selection prompt when set.
	Exam string
}

// Run plays one exam in the terminal against an in-process session.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.Service == nil {
		return errors.New("quiz service is required")
	}
	reader := bufio.NewReader(in)

	exam := strings.TrimSpace(cfg.Exam)
	if exam == "" {
		exams, err := cfg.Service.ListExams(ctx)
		if err != nil {
			return err
		}
		if len(exams) == 0 {
			fmt.Fprintln(out, "No exams available.")
			return nil
		}
		exam, err = chooseExam(reader, out, exams)
		if err != nil {
			return err
		}
	}

	var session quiz.Session
	if err := cfg.Service.Start(ctx, &session, exam); err != nil {
		return err
	}

	score, total := 0, len(session.QuestionOrder)
	for {
		card, err := cfg.Service.Current(ctx, session)
		if err != nil {
			return err
		}
		printQuestion(out, card)

		letter, ok := getAnswer(reader, out)
		fmt.Fprintln(out)
		if !ok {
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n\n", correctText(card.Question))
		} else {
			feedback, err := cfg.Service.Answer(ctx, &session, letter)
			if err != nil {
				return err
			}
			printFeedback(out, card.Question, feedback)
			if feedback.IsCorrect {
				score++
			}
		}

		completed, err := cfg.Service.Advance(ctx, &session)
		if err != nil {
			return err
		}
		if completed {
			break
		}
	}

	fmt.Fprintf(out, "\nYou've completed all questions for %s!\n", exam)
	fmt.Fprintf(out, "Final score: %d/%d\n", score, total)
	return nil
}

func chooseExam(reader *bufio.Reader, out io.Writer, exams []string) (string, error) {
	fmt.Fprintln(out, "Available exams:")
	for idx, exam := range exams {
		fmt.Fprintf(out, "%d. %s\n", idx+1, exam)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Fprint(out, "\nChoose an exam: ")
		line, err := reader.ReadString('\n')
		choice := strings.TrimSpace(line)
		if choice != "" {
			if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(exams) {
				return exams[n-1], nil
			}
			for _, exam := range exams {
				if strings.EqualFold(exam, choice) {
					return exam, nil
				}
			}
			fmt.Fprintf(out, "Unknown exam %q.\n", choice)
		}
		if err != nil {
			return "", fmt.Errorf("read exam choice: %w", err)
		}
	}
	return "", errors.New("no exam selected")
}

func printQuestion(out io.Writer, card quiz.Card) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s Q%d/%d: %s\n\n", card.Exam, card.Position+1, card.Total, card.Question.Text)
	for _, option := range card.Question.Options {
		if option.Text == "" {
			continue
		}
		fmt.Fprintf(out, "%s. %s\n", option.Letter, option.Text)
	}
	fmt.Fprintln(out)
}

func printFeedback(out io.Writer, question quiz.Question, feedback *quiz.Feedback) {
	if feedback.IsCorrect {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintf(out, "Wrong. You chose %s (%s). Correct answer was %s\n",
			feedback.ChosenOptionKey, feedback.ChosenOptionText, correctText(question))
	}
	if explanation := question.Explanation(feedback.IsCorrect); explanation != "" {
		fmt.Fprintln(out, explanation)
	}
	fmt.Fprintln(out)
}

func getAnswer(reader *bufio.Reader, out io.Writer) (string, bool) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		userAnswer, err := reader.ReadString('\n')
		letter := quiz.NormalizeLetter(userAnswer)
		for _, valid := range quiz.OptionLetters {
			if letter == valid {
				return letter, true
			}
		}
		if err != nil {
			return "", false
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%s.\n", quiz.OptionLetters[len(quiz.OptionLetters)-1])
		}
	}

	return "", false
}

func correctText(question quiz.Question) string {
	text, _ := question.OptionText(question.CorrectOptionKey)
	if text == "" {
		return question.CorrectOptionKey
	}
	return fmt.Sprintf("%s. %s", question.CorrectOptionKey, text)
}
