package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fxsim/internal/adapters/logger" // Import the logger package for LogLevel
)

// Feed modes selectable via FEED_MODE.
const (
	FeedModeSimulator  = "sim"
	FeedModeYourBourse = "yourbourse"
	FeedModeBinance    = "binance"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	HTTPAddr string

	// Account
	InitialBalance float64

	// Instruments served by the price feed
	Symbols []string

	// Feed selection and tuning
	FeedMode     string
	TickInterval time.Duration // simulator tick cadence

	// Risk profile name (GUARDIAN, COPILOT, MAVERICK)
	RiskProfile string

	// YourBourse bridge
	YBWSURL  string
	YBAPIKey string

	// Binance feed (public streams, keys optional)
	BinanceAPIKey    string
	BinanceSecretKey string

	// Connection settings shared by the live feeds
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.InitialBalance, err = getEnvAsFloatRequired("INITIAL_BALANCE", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_BALANCE: %v", err))
	} else if cfg.InitialBalance <= 0 {
		errs = append(errs, "INITIAL_BALANCE must be positive")
	}

	symbols := getEnv("SYMBOLS", "EURUSD,GBPUSD,USDJPY,BTCUSD")
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.Symbols = append(cfg.Symbols, strings.ToUpper(s))
		}
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one instrument")
	}

	cfg.FeedMode = strings.ToLower(getEnv("FEED_MODE", FeedModeSimulator))
	switch cfg.FeedMode {
	case FeedModeSimulator, FeedModeYourBourse, FeedModeBinance:
	default:
		errs = append(errs, fmt.Sprintf("FEED_MODE must be one of %s, %s, %s", FeedModeSimulator, FeedModeYourBourse, FeedModeBinance))
	}

	tickMs := getEnvAsInt("TICK_INTERVAL_MS", 2000)
	if tickMs <= 0 {
		errs = append(errs, "TICK_INTERVAL_MS must be positive")
	}
	cfg.TickInterval = time.Duration(tickMs) * time.Millisecond

	cfg.RiskProfile = strings.ToUpper(getEnv("RISK_PROFILE", "COPILOT"))

	cfg.YBWSURL = getEnv("YB_WS_URL", "wss://yourbourse.trade:32220/ws/v1")
	cfg.YBAPIKey = getEnv("YB_API_KEY", "")
	if cfg.FeedMode == FeedModeYourBourse && cfg.YBWSURL == "" {
		errs = append(errs, "YB_WS_URL must be set when FEED_MODE=yourbourse")
	}

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")

	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 3)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/fxsim.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
