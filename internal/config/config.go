package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the console agent reads from the environment.
type Config struct {
	// Backend
	BackendURL    string
	HTTPTimeoutMS int
	LoginEmail    string
	LoginPassword string

	// Control API
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	Title            string

	// Console behavior
	DefaultPanel     string
	SearchLimit      int
	ExpiryWarningMin int

	// Live prices
	FeedsConfigPath string

	// Notifications
	NTFYEndpoint string

	// Logging
	LogLevel   string
	LogFile    string
	JournalDir string
}

// Load reads configuration from environment variables and an optional .env
// file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BackendURL:       strings.TrimRight(getEnvOrDefault("KITE_BACKEND_URL", "http://127.0.0.1:8000"), "/"),
		HTTPTimeoutMS:    getEnvIntOrDefault("CONSOLE_HTTP_TIMEOUT_MS", 30000),
		LoginEmail:       os.Getenv("CONSOLE_LOGIN_EMAIL"),
		LoginPassword:    os.Getenv("CONSOLE_LOGIN_PASSWORD"),
		BindAddr:         getEnvOrDefault("CONSOLE_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   getEnvListOrDefault("CONSOLE_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192", "127.0.0.1:8193"}),
		PortAutoFallback: getEnvBoolOrDefault("CONSOLE_PORT_AUTO_FALLBACK", true),
		Title:            getEnvOrDefault("CONSOLE_TITLE", "Kite Admin Console"),
		DefaultPanel:     strings.ToLower(getEnvOrDefault("CONSOLE_DEFAULT_PANEL", "overview")),
		SearchLimit:      getEnvIntOrDefault("CONSOLE_SEARCH_LIMIT", 20),
		ExpiryWarningMin: getEnvIntOrDefault("CONSOLE_EXPIRY_WARNING_MIN", 60),
		FeedsConfigPath:  os.Getenv("CONSOLE_FEEDS_CONFIG"),
		NTFYEndpoint:     os.Getenv("CONSOLE_NTFY_ENDPOINT"),
		LogLevel:         strings.ToLower(getEnvOrDefault("CONSOLE_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("CONSOLE_LOG_FILE", "logs/kite_console.log"),
		JournalDir:       os.Getenv("CONSOLE_JOURNAL_DIR"),
	}

	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: invalid KITE_BACKEND_URL %q", cfg.BackendURL)
	}
	if cfg.HTTPTimeoutMS < 1000 {
		cfg.HTTPTimeoutMS = 1000
	}
	if cfg.SearchLimit < 1 {
		cfg.SearchLimit = 20
	}
	if cfg.ExpiryWarningMin < 0 {
		cfg.ExpiryWarningMin = 0
	}
	return cfg, nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

func (c *Config) ExpiryWarning() time.Duration {
	return time.Duration(c.ExpiryWarningMin) * time.Minute
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
