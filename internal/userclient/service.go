package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultServer            = "http://127.0.0.1:8080"
	defaultHTTPTimeout       = 5 * time.Second
	defaultMaxInvalidAnswers = 3
)

type Config struct {
	ServerURL         string
	MaxInvalidAnswers int
	HTTPTimeout       time.Duration
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	maxInvalidAnswers := cfg.MaxInvalidAnswers
	if maxInvalidAnswers <= 0 {
		maxInvalidAnswers = defaultMaxInvalidAnswers
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "exam-user-service\nserver=%s\n\n", serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "exams":
			if err := runList(ctx, out, client, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "reset":
			if err := client.Reset(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, serverURL))
				continue
			}
			fmt.Fprintln(out, "Session cleared. Choose an exam.")
		case "play":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: play <exam>")
				continue
			}
			// Sheet titles may contain spaces.
			exam := strings.TrimSpace(strings.TrimPrefix(line, args[0]))
			if err := runPlay(ctx, reader, out, client, exam, maxInvalidAnswers, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func runList(ctx context.Context, out io.Writer, client *HTTPClient, serverURL string) error {
	exams, err := client.ListExams(ctx)
	if err != nil {
		return describeClientError(err, serverURL)
	}

	if len(exams) == 0 {
		fmt.Fprintln(out, "No exams available.")
		return nil
	}

	fmt.Fprintln(out, "Available exams:")
	for idx, exam := range exams {
		fmt.Fprintf(out, "%d. %s\n", idx+1, exam)
	}
	return nil
}

func runPlay(ctx context.Context, reader *bufio.Reader, out io.Writer, client *HTTPClient, exam string, maxInvalidAnswers int, serverURL string) error {
	card, err := client.StartExam(ctx, exam)
	if err != nil {
		return describeClientError(err, serverURL)
	}

	score, answered := 0, 0
	for {
		printCard(out, card)

		invalidCount := 0
		for {
			answer, ok := promptAnswer(reader, out, card.Question.Options)
			if !ok {
				invalidCount++
				if invalidCount >= maxInvalidAnswers {
					fmt.Fprintln(out, "Skipping question after multiple invalid responses.")
					break
				}
				fmt.Fprintf(out, "Invalid input. Attempts remaining: %d\n", maxInvalidAnswers-invalidCount)
				continue
			}

			answeredCard, err := client.SubmitAnswer(ctx, answer)
			if err != nil {
				return describeClientError(err, serverURL)
			}
			printFeedback(out, answeredCard)
			answered++
			if answeredCard.Feedback != nil && answeredCard.Feedback.IsCorrect {
				score++
			}
			break
		}

		next, err := client.Next(ctx)
		if err != nil {
			return describeClientError(err, serverURL)
		}
		if next.Completed || next.Card == nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, next.Message)
			break
		}
		card = *next.Card
	}

	if answered > 0 {
		fmt.Fprintf(out, "Score: %d/%d\n", score, answered)
	} else {
		fmt.Fprintln(out, "No scored attempts in this run.")
	}
	return nil
}
