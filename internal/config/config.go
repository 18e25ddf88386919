package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Env variable names (documented for reference)
const (
	envVersion       = "APP_VERSION"
	envLogLevel      = "LOG_LEVEL"
	envBotToken      = "BOT_TOKEN"
	envGroupChatID   = "GROUP_CHAT_ID"
	envSupportThread = "SUPPORT_THREAD_ID"
	envRedisAddr     = "REDIS_ADDR"
	envRedisDB       = "REDIS_DB"
	envSpreadsheetID = "SPREADSHEET_ID"
	envSheetsToken   = "SHEETS_TOKEN"
	envDBPath        = "DB_PATH"
	envBadwordsPath  = "BADWORDS_PATH"
	envMetricsAddr   = "METRICS_ADDR"
	envSweepInterval = "SWEEP_INTERVAL" // Go duration string, e.g. "1m", "30s"
)

// Config aggregates all runtime settings required by the application.
// All fields are immutable after MustLoad().
//
// Defaults let the bot start locally with a Redis on localhost; mandatory
// settings (BOT_TOKEN, GROUP_CHAT_ID) must be supplied. A .env file in the
// working directory is honored when present.
//
// Example:
//
//	BOT_TOKEN=xxxxx GROUP_CHAT_ID=-100123 LOG_LEVEL=debug go run ./cmd/helpyhub
//
// Critical errors in configuration cause a panic via MustLoad().
type Config struct {
	Version         string        // app semantic version or git SHA
	LogLevel        string        // debug, info, warn, error, fatal (zap levels)
	BotToken        string        // Telegram bot credential
	GroupChatID     int64         // staff group the tickets are relayed to
	SupportThreadID int           // forum thread inside the staff group, 0 = none
	RedisAddr       string        // host:port of the shared key-value store
	RedisDB         int           // redis logical database
	SpreadsheetID   string        // ticket sheet; empty disables the sheet sink
	SheetsToken     string        // bearer token for the sheets API
	DBPath          string        // path to the SQLite ticket archive
	BadwordsPath    string        // profanity word list, one word per line
	MetricsAddr     string        // listen address for Prometheus endpoint
	SweepInterval   time.Duration // open-tickets metrics sweep period
}

var (
	defaultVersion       = "dev"
	defaultLogLevel      = "info"
	defaultRedisAddr     = "localhost:6379"
	defaultDBPath        = "data/tickets.db"
	defaultBadwordsPath  = "badwords.txt"
	defaultMetricsAddr   = ":8080"
	defaultSweepInterval = time.Minute
)

// MustLoad is a convenience wrapper around Load() that panics on error.
// Preferable in main() early startup where configuration problems are fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads environment variables (optionally seeded from .env), applies
// defaults, validates the result and returns a ready-to-use Config instance.
func Load() (Config, error) {
	_ = godotenv.Load() // absent .env is fine

	var cfg Config

	cfg.Version = getEnv(envVersion, defaultVersion)
	cfg.LogLevel = getEnv(envLogLevel, defaultLogLevel)
	cfg.BotToken = os.Getenv(envBotToken) // required, no default
	cfg.RedisAddr = getEnv(envRedisAddr, defaultRedisAddr)
	cfg.SpreadsheetID = os.Getenv(envSpreadsheetID)
	cfg.SheetsToken = os.Getenv(envSheetsToken)
	cfg.DBPath = getEnv(envDBPath, defaultDBPath)
	cfg.BadwordsPath = getEnv(envBadwordsPath, defaultBadwordsPath)
	cfg.MetricsAddr = getEnv(envMetricsAddr, defaultMetricsAddr)

	var err error
	if cfg.GroupChatID, err = getEnvInt64(envGroupChatID); err != nil {
		return Config{}, err
	}
	if cfg.SupportThreadID, err = getEnvInt(envSupportThread); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getEnvInt(envRedisDB); err != nil {
		return Config{}, err
	}

	if s := os.Getenv(envSweepInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envSweepInterval, err)
		}
		cfg.SweepInterval = d
	} else {
		cfg.SweepInterval = defaultSweepInterval
	}

	// Validation
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("%s is required", envBotToken)
	}
	if cfg.GroupChatID == 0 {
		return Config{}, fmt.Errorf("%s is required", envGroupChatID)
	}
	if cfg.SpreadsheetID != "" && cfg.SheetsToken == "" {
		return Config{}, fmt.Errorf("%s is required when %s is set", envSheetsToken, envSpreadsheetID)
	}
	return cfg, nil
}

// getEnv returns the value of the environment variable if set, otherwise def.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
