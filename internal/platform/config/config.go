package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultRequestTimeoutSec = 60
)

var (
	errInvalidPort          = errors.New("config: invalid PORT number")
	errTimeoutOutOfRange    = errors.New("config: REQUEST_TIMEOUT_SECONDS must be 1-600")
	errInvalidGeminiBaseURL = errors.New("config: GEMINI_BASE_URL must be an absolute http(s) URL")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port           string
	LogLevel       string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// The Gemini credential is not required here; the analysis client rejects an
// empty key when it is constructed.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "ERROR"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:    getEnv("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL:  os.Getenv("GEMINI_BASE_URL"),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", defaultRequestTimeoutSec)) * time.Second,
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.RequestTimeout < time.Second || c.RequestTimeout > 600*time.Second {
		return fmt.Errorf("%w: got %s", errTimeoutOutOfRange, c.RequestTimeout)
	}

	if c.GeminiBaseURL != "" {
		u, err := url.Parse(c.GeminiBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", errInvalidGeminiBaseURL, c.GeminiBaseURL)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
