// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Path to the YAML file describing the WordPress sites.
	SitesFile string

	// OpenAI image generation settings. An empty API key disables
	// image generation; article creation still works without it.
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// WordPress publishing defaults
	DefaultPostStatus string // "draft", "publish", "private"
	DefaultPostFormat string
	TermsPerPage      int // page size when listing categories/tags

	// HTTP timeouts for remote calls. UploadTimeout also bounds
	// image downloads from the generation provider.
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	// Optional SQLite publish-history database. Empty disables history.
	HistoryDB string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "127.0.0.1"),
		Port: envOrDefault("APP_PORT", "8087"),
		Env:  envOrDefault("APP_ENV", "development"),

		SitesFile: envOrDefault("SITES_FILE", "config/wordpress_sites.yaml"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		DefaultPostStatus: envOrDefault("DEFAULT_POST_STATUS", "draft"),
		DefaultPostFormat: envOrDefault("DEFAULT_POST_FORMAT", "standard"),

		HistoryDB: os.Getenv("HISTORY_DB"),
	}

	var err error
	cfg.TermsPerPage, err = envInt("TERMS_PER_PAGE", 100)
	if err != nil {
		return nil, err
	}

	requestSecs, err := envInt("REQUEST_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	uploadSecs, err := envInt("UPLOAD_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(requestSecs) * time.Second
	cfg.UploadTimeout = time.Duration(uploadSecs) * time.Second

	switch cfg.DefaultPostStatus {
	case "draft", "publish", "private":
	default:
		return nil, fmt.Errorf("DEFAULT_POST_STATUS must be draft, publish, or private; got %q", cfg.DefaultPostStatus)
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads a positive integer environment variable with a fallback.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer; got %q", key, v)
	}
	return n, nil
}
