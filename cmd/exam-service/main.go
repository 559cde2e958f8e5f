package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-flashcards/internal/config"
	"exam-flashcards/internal/httpapi"
	"exam-flashcards/internal/quiz"
	"exam-flashcards/internal/quiz/redisstore"
	"exam-flashcards/internal/quiz/sqlite"
	"exam-flashcards/internal/sheets"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 15 * time.Minute
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error: load .env:", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()

	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	flag.Parse()

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, *addr, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, addr string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SpreadsheetID == "" {
		logger.Warn("GOOGLE_SHEET_ID is not set; every exam request will fail as source unavailable")
	}
	if cfg.UsesDevSecret() {
		logger.Warn("SESSION_SECRET is not set; using the built-in development key")
	}

	var source quiz.Source
	client, err := sheets.NewGoogleClient(ctx, sheets.Options{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.CredentialsFile,
		BaseURL:         cfg.SheetsBaseURL,
		Timeout:         cfg.SheetsTimeout,
	})
	if err != nil {
		logger.Warn("sheets client unavailable; exam requests will fail until credentials are fixed", "error", err)
		source = sheets.UnavailableSource{Cause: err}
	} else {
		source = client
	}

	store, closeStore, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close session store failed", "error", err)
		}
	}()

	cache := quiz.NewExamCache(source, quiz.CacheConfig{
		TTL:          cfg.CacheTTL,
		SingleFlight: cfg.CacheSingleFlight,
		Logger:       logger,
	})
	service := quiz.NewService(cache, logger)
	cookies := httpapi.NewSessionCookies(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)
	api := httpapi.NewAPI(service, store, cookies, logger)

	server := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(api, httpapi.RouterOptions{CORSOrigins: cfg.CORSOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("exam-service listening",
			"addr", addr,
			"cache_ttl", cfg.CacheTTL,
			"session_store", cfg.SessionDriver,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openSessionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (quiz.SessionStore, func() error, error) {
	switch cfg.SessionDriver {
	case config.SessionMemory, "":
		return quiz.NewMemoryStore(), func() error { return nil }, nil
	case config.SessionSQLite:
		store, err := sqlite.NewSessionStore(cfg.SQLitePath, cfg.SessionTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		go purgeExpired(ctx, store, logger)
		return store, store.Close, nil
	case config.SessionRedis:
		store := redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect redis session store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionDriver)
	}
}

func purgeExpired(ctx context.Context, store *sqlite.SessionStore, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Error("purge expired sessions failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
