package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type SessionDriver string

const (
	SessionMemory SessionDriver = "memory"
	SessionSQLite SessionDriver = "sqlite"
	SessionRedis  SessionDriver = "redis"
)

const devSessionSecret = "dev_default_strong_random_secret_key_123!"

type Config struct {
	HTTPAddr string

	SpreadsheetID   string
	CredentialsFile string
	SheetsBaseURL   string
	SheetsTimeout   time.Duration

	CacheTTL          time.Duration
	CacheSingleFlight bool

	SessionDriver SessionDriver
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	SessionSecret string
	CookieSecure  bool
	CORSOrigins   []string

	LogFormat string // text|json
	LogLevel  slog.Level
}

// LoadDotEnv reads .env files when present. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":" + envOr("PORT", "8080")
	}

	level := parseLevel(os.Getenv("LOG_LEVEL"))
	if envBool("FLASK_DEBUG", false) || envBool("DEBUG", false) {
		level = slog.LevelDebug
	}

	return Config{
		HTTPAddr: addr,

		SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		SheetsBaseURL:   envOr("SHEETS_API_URL", "https://sheets.googleapis.com"),
		SheetsTimeout:   envDuration("SHEETS_TIMEOUT", 10*time.Second),

		CacheTTL:          time.Duration(envInt("CACHE_DURATION_SECONDS", 10*60)) * time.Second,
		CacheSingleFlight: envBool("CACHE_SINGLE_FLIGHT", false),

		SessionDriver: SessionDriver(strings.ToLower(envOr("SESSION_STORE", string(SessionMemory)))),
		SQLitePath:    envOr("SESSION_SQLITE_PATH", "sessions.db"),
		RedisAddr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		SessionTTL:    envDuration("SESSION_TTL", 24*time.Hour),

		SessionSecret: envOr("SESSION_SECRET", envOr("FLASK_SECRET_KEY", devSessionSecret)),
		CookieSecure:  envBool("COOKIE_SECURE", false),
		CORSOrigins:   csvOr("CORS_ORIGINS", ""),

		LogFormat: strings.ToLower(envOr("LOG_FORMAT", "text")),
		LogLevel:  level,
	}
}

// UsesDevSecret reports whether the session cookie is signed with the built-in key.
func (c Config) UsesDevSecret() bool {
	return c.SessionSecret == devSessionSecret
}

// NewLogger builds the process logger from LogFormat and LogLevel.
func (c Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

func (c Config) NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
