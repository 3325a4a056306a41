package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		Host:            "0.0.0.0",
		Port:            5000,
		ModelPath:       "models/house_price_model.json",
		PredictTimeout:  5 * time.Second,
		CacheSize:       128,
		CacheTTL:        time.Minute,
		CORSAllowOrigin: "*",
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_InvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(s *Settings)
		wantMsg string
	}{
		{"empty host", func(s *Settings) { s.Host = "" }, "host cannot be empty"},
		{"zero port", func(s *Settings) { s.Port = 0 }, "port must be between"},
		{"port too high", func(s *Settings) { s.Port = 65536 }, "port must be between"},
		{"empty model path", func(s *Settings) { s.ModelPath = "" }, "model path cannot be empty"},
		{"zero predict timeout", func(s *Settings) { s.PredictTimeout = 0 }, "predict timeout"},
		{"huge predict timeout", func(s *Settings) { s.PredictTimeout = time.Hour }, "predict timeout"},
		{"zero shutdown timeout", func(s *Settings) { s.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"negative cache size", func(s *Settings) { s.CacheSize = -5 }, "cache size"},
		{"cache without ttl", func(s *Settings) { s.CacheTTL = 0 }, "cache TTL"},
		{"zero body limit", func(s *Settings) { s.MaxBodyBytes = 0 }, "max body bytes"},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, "unknown log level"},
		{"bad log format", func(s *Settings) { s.LogFormat = "logfmt" }, "log format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			tc.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatalf("Expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tc.wantMsg, err)
			}
		})
	}
}

func TestValidateSettings_CacheDisabledIgnoresTTL(t *testing.T) {
	settings := createValidSettings()
	settings.CacheSize = 0
	settings.CacheTTL = 0

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected disabled cache to skip TTL check, got: %v", err)
	}
}

func TestValidateSettings_LogLevelCaseInsensitive(t *testing.T) {
	settings := createValidSettings()
	settings.LogLevel = "DEBUG"

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected upper-case level to pass, got: %v", err)
	}
}
