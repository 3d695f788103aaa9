package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends
const (
	TokenStoreKeyring = "keyring"
	TokenStoreFile    = "file"
	TokenStoreMemory  = "memory"
)

// Config holds all configuration for the CLI
type Config struct {
	// API Configuration
	API APIConfig

	// Session Configuration
	Session SessionConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the finance API connection settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig selects where the bearer token is persisted
type SessionConfig struct {
	Store     string // keyring, file, memory
	TokenFile string // only used by the file store
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// API URL - the finance API dev server listens on 5000
	baseURL := os.Getenv("FINTRACK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 10 * time.Second
	if raw := os.Getenv("FINTRACK_HTTP_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FINTRACK_HTTP_TIMEOUT %q: %w", raw, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("invalid FINTRACK_HTTP_TIMEOUT %q: must be positive", raw)
		}
		timeout = parsed
	}

	store := strings.ToLower(os.Getenv("FINTRACK_TOKEN_STORE"))
	switch store {
	case "":
		store = TokenStoreKeyring
	case TokenStoreKeyring, TokenStoreFile, TokenStoreMemory:
	default:
		return nil, fmt.Errorf("invalid FINTRACK_TOKEN_STORE %q: must be one of keyring, file, memory", store)
	}

	// Logging configuration - quiet by default, the CLI prints its own output
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			BaseURL: baseURL,
			Timeout: timeout,
		},
		Session: SessionConfig{
			Store:     store,
			TokenFile: os.Getenv("FINTRACK_TOKEN_FILE"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
