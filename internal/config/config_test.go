package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Second, cfg.FollowUpDelay)
	assert.Equal(t, 48000, cfg.Capture.SampleRate)
	assert.Equal(t, "WEBM_OPUS", cfg.Capture.Encoding)
	assert.Equal(t, "en-US", cfg.Capture.Language)
	assert.False(t, cfg.GoogleSpeechEnabled)
	assert.True(t, cfg.UsingDevelopmentJWT)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                  "9000",
		"LOG_LEVEL":             "debug",
		"JWT_SECRET":            "s3cret",
		"TOKEN_TTL":             "2h",
		"FOLLOW_UP_DELAY":       "250ms",
		"CAPTURE_SAMPLE_RATE":   "16000",
		"CAPTURE_ENCODING":      "LINEAR16",
		"CAPTURE_LANGUAGE":      "en-GB",
		"GOOGLE_SPEECH_ENABLED": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.False(t, cfg.UsingDevelopmentJWT)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.FollowUpDelay)
	assert.Equal(t, 16000, cfg.Capture.SampleRate)
	assert.Equal(t, "LINEAR16", cfg.Capture.Encoding)
	assert.Equal(t, "en-GB", cfg.Capture.Language)
	assert.True(t, cfg.GoogleSpeechEnabled)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"negative delay", map[string]string{"FOLLOW_UP_DELAY": "-1s"}, "FOLLOW_UP_DELAY"},
		{"unparsable ttl", map[string]string{"TOKEN_TTL": "tomorrow"}, "TOKEN_TTL"},
		{"sample rate out of range", map[string]string{"CAPTURE_SAMPLE_RATE": "96000"}, "CAPTURE_SAMPLE_RATE"},
		{"bad bool", map[string]string{"GOOGLE_SPEECH_ENABLED": "maybe"}, "GOOGLE_SPEECH_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FOLLOW_UP_DELAY=3s\n"), 0o600))
	t.Setenv("FOLLOW_UP_DELAY", "")
	require.NoError(t, os.Unsetenv("FOLLOW_UP_DELAY"))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.FollowUpDelay)
}
