package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"exam-flashcards/internal/cli"
	"exam-flashcards/internal/config"
	"exam-flashcards/internal/quiz"
	"exam-flashcards/internal/sheets"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load .env:", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()

	exam := flag.String("exam", "", "exam (sheet title) to play; prompts when empty")
	flag.Parse()

	// Cache chatter stays off the terminal unless debugging.
	if cfg.LogLevel == slog.LevelInfo {
		cfg.LogLevel = slog.LevelWarn
	}
	logger := cfg.NewLoggerTo(os.Stderr)

	ctx := context.Background()
	source, err := sheets.NewGoogleClient(ctx, sheets.Options{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.CredentialsFile,
		BaseURL:         cfg.SheetsBaseURL,
		Timeout:         cfg.SheetsTimeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	service := quiz.NewService(quiz.NewExamCache(source, quiz.CacheConfig{TTL: cfg.CacheTTL, Logger: logger}), logger)
	if err := cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{Service: service, Exam: *exam}); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
