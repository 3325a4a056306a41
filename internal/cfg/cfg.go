package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"house-price-api/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Host            string
	Port            int
	ModelPath       string
	PythonPath      string
	PredictTimeout  time.Duration
	CacheSize       int
	CacheTTL        time.Duration
	CORSAllowOrigin string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	DataPath        string
	LogLevel        string
	LogFormat       string
	LogFile         string
}

type ConfigFile struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		CORSAllowOrigin string `yaml:"corsAllowOrigin"`
		MaxBodyBytes    int64  `yaml:"maxBodyBytes"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Model struct {
		Path           string `yaml:"path"`
		PythonPath     string `yaml:"pythonPath"`
		PredictTimeout string `yaml:"predictTimeout"`
		CacheSize      *int   `yaml:"cacheSize"`
		CacheTTL       string `yaml:"cacheTTL"`
	} `yaml:"model"`

	System struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"system"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

// Addr returns the listen address built from Host and Port.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Load reads settings from an optional .env file, an optional YAML file named
// by CONFIG_FILE, and the environment. Environment variables win over the file.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	cacheSize := common.DefaultCacheSize
	if config.Model.CacheSize != nil {
		cacheSize = *config.Model.CacheSize
	}

	settings := Settings{
		Host:            getEnvOrDefault(common.EnvHost, orDefault(config.Server.Host, common.DefaultHost)),
		Port:            getIntOrDefault(common.EnvPort, orDefaultInt(config.Server.Port, common.DefaultPort)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		PythonPath:      getEnvOrDefault(common.EnvPythonPath, config.Model.PythonPath),
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, parseDurationOr(config.Model.PredictTimeout, 5*time.Second)),
		CacheSize:       getIntOrDefault(common.EnvCacheSize, cacheSize),
		CacheTTL:        getDurationOrDefault(common.EnvCacheTTL, parseDurationOr(config.Model.CacheTTL, 10*time.Minute)),
		CORSAllowOrigin: getEnvOrDefault(common.EnvCORSAllowOrigin, orDefault(config.Server.CORSAllowOrigin, common.DefaultCORSAllowOrigin)),
		MaxBodyBytes:    getInt64OrDefault(common.EnvMaxBodyBytes, orDefaultInt64(config.Server.MaxBodyBytes, common.DefaultMaxBodyBytes)),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, parseDurationOr(config.Server.ShutdownTimeout, 10*time.Second)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.Log.Level, common.DefaultLogLevel)),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, orDefault(config.Log.Format, common.DefaultLogFormat)),
		LogFile:         getEnvOrDefault(common.EnvLogFile, config.Log.File),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Host:            getEnvOrDefault(common.EnvHost, common.DefaultHost),
		Port:            getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		PythonPath:      os.Getenv(common.EnvPythonPath), // optional, auto-detected
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, 5*time.Second),
		CacheSize:       getIntOrDefault(common.EnvCacheSize, common.DefaultCacheSize),
		CacheTTL:        getDurationOrDefault(common.EnvCacheTTL, 10*time.Minute),
		CORSAllowOrigin: getEnvOrDefault(common.EnvCORSAllowOrigin, common.DefaultCORSAllowOrigin),
		MaxBodyBytes:    getInt64OrDefault(common.EnvMaxBodyBytes, common.DefaultMaxBodyBytes),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, 10*time.Second),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		LogFile:         os.Getenv(common.EnvLogFile),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseDurationOr(v string, defaultValue time.Duration) time.Duration {
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func orDefaultInt(v, defaultValue int) int {
	if v != 0 {
		return v
	}
	return defaultValue
}

func orDefaultInt64(v, defaultValue int64) int64 {
	if v != 0 {
		return v
	}
	return defaultValue
}

// validateSettings rejects values the server cannot run with
func validateSettings(settings *Settings) error {
	if settings.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.PredictTimeout <= 0 || settings.PredictTimeout > 5*time.Minute {
		return fmt.Errorf("predict timeout must be between 0 and 5m, got %v", settings.PredictTimeout)
	}
	if settings.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", settings.ShutdownTimeout)
	}

	if settings.CacheSize < 0 || settings.CacheSize > common.MaxCacheSize {
		return fmt.Errorf("cache size must be between 0 and %d, got %d", common.MaxCacheSize, settings.CacheSize)
	}
	if settings.CacheSize > 0 && settings.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when the cache is enabled, got %v", settings.CacheTTL)
	}
	if settings.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", settings.MaxBodyBytes)
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", settings.LogFormat)
	}

	return nil
}
