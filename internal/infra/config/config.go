package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	DatabaseURL             string
	HTTPAddr                string
	ReminderTimezone        string // IANA name; all due-today math uses this, never host-local time
	CronSpecDaily           string
	JWTSecret               string
	FirebaseCredentialsFile string
	TokenPrefixLength       int
	AuditDedupWindow        time.Duration
	TelegramToken           string // optional ops alert channel
	AdminChatID             int64
	LogLevel                string
	Environment             string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.FirebaseCredentialsFile = os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if cfg.FirebaseCredentialsFile == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_FILE is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.ReminderTimezone = os.Getenv("REMINDER_TIMEZONE")
	if cfg.ReminderTimezone == "" {
		cfg.ReminderTimezone = "Asia/Manila"
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY_REMINDERS")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = "0 8 * * *" // 8:00 AM daily in ReminderTimezone
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET") // empty means every actor is unattributed

	prefixStr := os.Getenv("DEVICE_TOKEN_PREFIX_LENGTH")
	if prefixStr == "" {
		cfg.TokenPrefixLength = 32
	} else {
		n, err := strconv.Atoi(prefixStr)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DEVICE_TOKEN_PREFIX_LENGTH: %q", prefixStr)
		}
		cfg.TokenPrefixLength = n
	}

	windowStr := os.Getenv("AUDIT_DEDUP_WINDOW")
	if windowStr == "" {
		cfg.AuditDedupWindow = 5 * time.Second
	} else {
		d, err := time.ParseDuration(windowStr)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid AUDIT_DEDUP_WINDOW: %q", windowStr)
		}
		cfg.AuditDedupWindow = d
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	adminIDStr := os.Getenv("ADMIN_CHAT_ID")
	if adminIDStr != "" {
		id, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = id
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}
