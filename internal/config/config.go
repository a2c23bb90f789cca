package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vizgo/internal/errors"
	"vizgo/models"
)

// Generator modes
const (
	ModeLLM       = "llm"
	ModeHeuristic = "heuristic"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	AI        AIConfig
	Executor  ExecutorConfig
	Server    ServerConfig
	Data      DataConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings. An empty URL runs
// without a chart store.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a chart store is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	models.AIConfig
	Mode       string // llm or heuristic
	Candidates int    // code candidates per visualize request
	Fallback   bool   // fall back to heuristics when the LLM fails
}

// ExecutorConfig holds the candidate runtime settings
type ExecutorConfig struct {
	PythonBin        string
	Workers          int
	CandidateTimeout time.Duration
	MemoryLimitMB    int
	AllowListPath    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	GalleryPort string
}

// DataConfig holds data processing settings
type DataConfig struct {
	MaxRows     int
	SampleCount int
	File        string // dataset loaded at startup, optional

	// Remote datasets (http/https paths)
	HTTPTimeout time.Duration
	HTTPToken   string
	JSONPath    string // gjson path to the records array of a JSON response
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
	}

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	executorConfig, err := loadExecutorConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load executor configuration")
	}
	config.Executor = *executorConfig

	config.Server = *loadServerConfig()
	config.Data = *loadDataConfig()
	config.Profiling = *loadProfilingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAIConfig() (*AIConfig, error) {
	base := models.DefaultAIConfig()

	mode := strings.ToLower(os.Getenv("GENERATOR_MODE"))
	if mode == "" {
		mode = ModeHeuristic
		if base.OpenAIKey != "" {
			mode = ModeLLM
		}
	}
	if mode != ModeLLM && mode != ModeHeuristic {
		return nil, errors.ConfigInvalid(fmt.Sprintf("GENERATOR_MODE must be %q or %q, got %q", ModeLLM, ModeHeuristic, mode))
	}

	return &AIConfig{
		AIConfig:   *base,
		Mode:       mode,
		Candidates: getEnvIntOrDefault("GENERATOR_CANDIDATES", 1),
		Fallback:   getEnvBoolOrDefault("GENERATOR_FALLBACK", true),
	}, nil
}

func loadExecutorConfig() (*ExecutorConfig, error) {
	timeout := getEnvDurationOrDefault("EXECUTOR_CANDIDATE_TIMEOUT", 60*time.Second)
	if timeout <= 0 {
		return nil, errors.ConfigInvalid("EXECUTOR_CANDIDATE_TIMEOUT must be positive")
	}
	return &ExecutorConfig{
		PythonBin:        getEnvOrDefault("PYTHON_BIN", "python3"),
		Workers:          getEnvIntOrDefault("EXECUTOR_WORKERS", 1),
		CandidateTimeout: timeout,
		MemoryLimitMB:    getEnvIntOrDefault("EXECUTOR_MEMORY_LIMIT_MB", 0),
		AllowListPath:    getEnvOrDefault("EXECUTOR_ALLOWLIST", ""),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		GalleryPort: getEnvOrDefault("GALLERY_PORT", "8081"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		MaxRows:     getEnvIntOrDefault("MAX_ROWS", 100000),
		SampleCount: getEnvIntOrDefault("PROFILE_SAMPLES", 3),
		File:        getEnvOrDefault("DATA_FILE", ""),
		HTTPTimeout: getEnvDurationOrDefault("DATA_HTTP_TIMEOUT", 60*time.Second),
		HTTPToken:   getEnvOrDefault("DATA_HTTP_TOKEN", ""),
		JSONPath:    getEnvOrDefault("DATA_JSON_PATH", ""),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.AI.Mode == ModeLLM && config.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required when GENERATOR_MODE=llm")
	}
	if config.AI.Candidates < 1 {
		return errors.ConfigInvalid("GENERATOR_CANDIDATES must be at least 1")
	}
	if config.Executor.Workers < 1 {
		return errors.ConfigInvalid("EXECUTOR_WORKERS must be at least 1")
	}
	if config.Executor.MemoryLimitMB < 0 {
		return errors.ConfigInvalid("EXECUTOR_MEMORY_LIMIT_MB cannot be negative")
	}
	if config.Data.MaxRows < 1 {
		return errors.ConfigInvalid("MAX_ROWS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") or plain seconds ("90")
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
