package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func promptAnswer(reader *bufio.Reader, out io.Writer, options []option) (string, bool) {
	if len(options) < 1 {
		return "", false
	}

	maxLetter := options[len(options)-1].Letter
	fmt.Fprintf(out, "Your answer (A-%s): ", maxLetter)

	// A final line without a newline still counts.
	line, _ := reader.ReadString('\n')
	answer := strings.ToUpper(strings.TrimSpace(line))
	if answer == "" {
		return "", false
	}
	for _, option := range options {
		if answer == option.Letter {
			return answer, true
		}
	}
	return "", false
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  exams")
	fmt.Fprintln(out, "  play <exam>")
	fmt.Fprintln(out, "  reset")
	fmt.Fprintln(out, "  exit")
}

func printCard(out io.Writer, card cardResponse) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s Q%d/%d: %s\n\n", card.Exam, card.Number, card.Total, card.Question.Text)
	for _, option := range card.Question.Options {
		if strings.TrimSpace(option.Text) == "" {
			continue
		}
		fmt.Fprintf(out, "%s. %s\n", option.Letter, option.Text)
	}
	fmt.Fprintln(out)
}

func printFeedback(out io.Writer, card cardResponse) {
	feedback := card.Feedback
	if feedback == nil {
		return
	}
	if feedback.IsCorrect {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintf(out, "Wrong. You chose %s (%s). Correct answer was %s\n",
			feedback.ChosenOptionKey, feedback.ChosenOptionText, correctAnswerDisplay(card))
	}
	if feedback.Explanation != "" {
		fmt.Fprintln(out, feedback.Explanation)
	}
}

func correctAnswerDisplay(card cardResponse) string {
	if card.Feedback == nil || card.Feedback.CorrectOptionKey == "" {
		return "unknown"
	}
	key := card.Feedback.CorrectOptionKey
	for _, option := range card.Question.Options {
		if option.Letter == key && strings.TrimSpace(option.Text) != "" {
			return fmt.Sprintf("%s. %s", option.Letter, option.Text)
		}
	}
	return key
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s (rate limited)", apiErr.Message)
	}
	return err
}
