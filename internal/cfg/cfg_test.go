package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults with empty environment",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Host != "0.0.0.0" {
					t.Errorf("expected default Host 0.0.0.0, got %s", settings.Host)
				}
				if settings.Port != 5000 {
					t.Errorf("expected default Port 5000, got %d", settings.Port)
				}
				if settings.ModelPath != "models/house_price_model.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.PredictTimeout != 5*time.Second {
					t.Errorf("expected default PredictTimeout 5s, got %v", settings.PredictTimeout)
				}
				if settings.CacheSize != 1024 {
					t.Errorf("expected default CacheSize 1024, got %d", settings.CacheSize)
				}
				if settings.CORSAllowOrigin != "*" {
					t.Errorf("expected default CORS origin *, got %s", settings.CORSAllowOrigin)
				}
				if settings.DataPath != "" {
					t.Errorf("expected journal disabled by default, got %s", settings.DataPath)
				}
				if settings.Addr() != "0.0.0.0:5000" {
					t.Errorf("expected Addr 0.0.0.0:5000, got %s", settings.Addr())
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"HOST":              "127.0.0.1",
				"PORT":              "8081",
				"MODEL_PATH":        "/srv/models/model.pkl",
				"PYTHON_PATH":       "/usr/bin/python3",
				"PREDICT_TIMEOUT":   "2s",
				"CACHE_SIZE":        "0",
				"CORS_ALLOW_ORIGIN": "https://example.com",
				"DATA_PATH":         "/var/lib/priceapi",
				"LOG_LEVEL":         "debug",
				"LOG_FORMAT":        "json",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Addr() != "127.0.0.1:8081" {
					t.Errorf("expected Addr 127.0.0.1:8081, got %s", settings.Addr())
				}
				if settings.ModelPath != "/srv/models/model.pkl" {
					t.Errorf("expected custom ModelPath, got %s", settings.ModelPath)
				}
				if settings.PythonPath != "/usr/bin/python3" {
					t.Errorf("expected PythonPath /usr/bin/python3, got %s", settings.PythonPath)
				}
				if settings.PredictTimeout != 2*time.Second {
					t.Errorf("expected PredictTimeout 2s, got %v", settings.PredictTimeout)
				}
				if settings.CacheSize != 0 {
					t.Errorf("expected CacheSize 0, got %d", settings.CacheSize)
				}
				if settings.CORSAllowOrigin != "https://example.com" {
					t.Errorf("expected custom CORS origin, got %s", settings.CORSAllowOrigin)
				}
				if settings.DataPath != "/var/lib/priceapi" {
					t.Errorf("expected DataPath, got %s", settings.DataPath)
				}
				if settings.LogFormat != "json" {
					t.Errorf("expected LogFormat json, got %s", settings.LogFormat)
				}
			},
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			envVars: map[string]string{"LOG_LEVEL": "loud"},
			wantErr: true,
		},
		{
			name:    "negative cache size",
			envVars: map[string]string{"CACHE_SIZE": "-1"},
			wantErr: true,
		},
		{
			name:    "unparseable values fall back to defaults",
			envVars: map[string]string{"PORT": "abc", "PREDICT_TIMEOUT": "soon"},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 5000 {
					t.Errorf("expected default Port 5000, got %d", settings.Port)
				}
				if settings.PredictTimeout != 5*time.Second {
					t.Errorf("expected default PredictTimeout 5s, got %v", settings.PredictTimeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
server:
  host: "127.0.0.1"
  port: 9000
  corsAllowOrigin: "https://houses.example"
  maxBodyBytes: 4096
  shutdownTimeout: "3s"

model:
  path: "models/custom.yaml"
  predictTimeout: "750ms"
  cacheSize: 64
  cacheTTL: "1m"

system:
  dataPath: "/custom/data"

log:
  level: "warn"
  format: "json"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Addr() != "127.0.0.1:9000" {
					t.Errorf("expected Addr 127.0.0.1:9000, got %s", settings.Addr())
				}
				if settings.ModelPath != "models/custom.yaml" {
					t.Errorf("expected ModelPath models/custom.yaml, got %s", settings.ModelPath)
				}
				if settings.PredictTimeout != 750*time.Millisecond {
					t.Errorf("expected PredictTimeout 750ms, got %v", settings.PredictTimeout)
				}
				if settings.CacheSize != 64 {
					t.Errorf("expected CacheSize 64, got %d", settings.CacheSize)
				}
				if settings.CacheTTL != time.Minute {
					t.Errorf("expected CacheTTL 1m, got %v", settings.CacheTTL)
				}
				if settings.MaxBodyBytes != 4096 {
					t.Errorf("expected MaxBodyBytes 4096, got %d", settings.MaxBodyBytes)
				}
				if settings.ShutdownTimeout != 3*time.Second {
					t.Errorf("expected ShutdownTimeout 3s, got %v", settings.ShutdownTimeout)
				}
				if settings.DataPath != "/custom/data" {
					t.Errorf("expected DataPath /custom/data, got %s", settings.DataPath)
				}
				if settings.LogLevel != "warn" {
					t.Errorf("expected LogLevel warn, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
server:
  port: 9000
model:
  path: "models/custom.yaml"
`,
			envOverrides: map[string]string{
				"PORT":       "9100",
				"MODEL_PATH": "models/env.json",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 9100 {
					t.Errorf("expected env override Port 9100, got %d", settings.Port)
				}
				if settings.ModelPath != "models/env.json" {
					t.Errorf("expected env override ModelPath, got %s", settings.ModelPath)
				}
				if settings.Host != "0.0.0.0" {
					t.Errorf("expected default Host, got %s", settings.Host)
				}
			},
		},
		{
			name: "cache explicitly disabled in YAML",
			yamlContent: `
model:
  cacheSize: 0
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.CacheSize != 0 {
					t.Errorf("expected CacheSize 0, got %d", settings.CacheSize)
				}
			},
		},
		{
			name: "YAML with invalid log format",
			yamlContent: `
log:
  format: "xml"
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("PORT", "5050")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 5050 {
			t.Errorf("expected Port 5050, got %d", settings.Port)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 6000\n"), 0o644); err != nil {
			t.Fatalf("failed to write test config file: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 6000 {
			t.Errorf("expected Port 6000, got %d", settings.Port)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "HOST", "PORT", "MODEL_PATH", "PYTHON_PATH", "PREDICT_TIMEOUT",
		"CACHE_SIZE", "CACHE_TTL", "CORS_ALLOW_ORIGIN", "MAX_BODY_BYTES",
		"SHUTDOWN_TIMEOUT", "DATA_PATH", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
