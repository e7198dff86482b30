// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	StorePath    string
	BridgePort   int
	PollInterval time.Duration
	AccountEmail string
	DashboardURL string
}

// Default values
const (
	defaultBridgePort   = 48829
	defaultPollInterval = 60 * time.Second
	defaultDashboardURL = "https://vibelens-fxnro0ske-may1350s-projects.vercel.app/"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath: getEnvString("VIBELENS_DB_PATH", getDefaultDatabasePath()),
		StorePath:    getEnvString("VIBELENS_STORE_PATH", getDefaultStorePath()),
		BridgePort:   getEnvInt("VIBELENS_BRIDGE_PORT", defaultBridgePort),
		PollInterval: getEnvDuration("VIBELENS_POLL_INTERVAL", defaultPollInterval),
		AccountEmail: getEnvString("VIBELENS_ACCOUNT_EMAIL", ""),
		DashboardURL: getEnvString("VIBELENS_DASHBOARD_URL", defaultDashboardURL),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure store directory exists
	if err := ensureDir(filepath.Dir(cfg.StorePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "vibelens", ".env"),
			filepath.Join(home, ".vibelens", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(home, ".config", "vibelens", "usage.db")
}

// getDefaultStorePath returns the default path for the account store file.
func getDefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vibelens-store.json"
	}
	return filepath.Join(home, ".config", "vibelens", "store.json")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
