// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

const devSecret = "dev-secret-change-me"

// Config holds every tunable of the server
type Config struct {
	Port                string
	LogLevel            zapcore.Level
	JWTSecret           []byte
	TokenTTL            time.Duration
	FollowUpDelay       time.Duration
	Capture             repositories.AudioConfig
	GoogleSpeechEnabled bool
	UsingDevelopmentJWT bool
}

// Load reads .env files (missing files are ignored) and then the environment
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	var errs []error

	level, err := zapcore.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	tokenTTL, err := parsePositiveDuration(get("TOKEN_TTL", "24h"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	}

	followUpDelay, err := parsePositiveDuration(get("FOLLOW_UP_DELAY", "1s"))
	if err != nil {
		errs = append(errs, fmt.Errorf("FOLLOW_UP_DELAY: %w", err))
	}

	sampleRate, err := strconv.Atoi(get("CAPTURE_SAMPLE_RATE", "48000"))
	if err != nil || sampleRate < 8000 || sampleRate > 48000 {
		errs = append(errs, fmt.Errorf("CAPTURE_SAMPLE_RATE: must be between 8000 and 48000, got %q", get("CAPTURE_SAMPLE_RATE", "")))
	}

	googleEnabled, err := strconv.ParseBool(get("GOOGLE_SPEECH_ENABLED", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("GOOGLE_SPEECH_ENABLED: %w", err))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	cfg := &Config{
		Port:          get("PORT", "8080"),
		LogLevel:      level,
		JWTSecret:     []byte(getenv("JWT_SECRET")),
		TokenTTL:      tokenTTL,
		FollowUpDelay: followUpDelay,
		Capture: repositories.AudioConfig{
			SampleRate: sampleRate,
			Encoding:   get("CAPTURE_ENCODING", "WEBM_OPUS"),
			Language:   get("CAPTURE_LANGUAGE", "en-US"),
		},
		GoogleSpeechEnabled: googleEnabled,
	}
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = []byte(devSecret)
		cfg.UsingDevelopmentJWT = true
	}
	return cfg, nil
}

// NewLogger builds the production zap logger at the configured level
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	return zc.Build()
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}
