// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides (ai.api_key -> AI_API_KEY).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // the per-environment file is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory, so tests in nested packages pick up the repo-level file.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills provider credentials from the variable names
// the SDKs themselves document.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty := func(dst *string, envKeys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range envKeys {
			if val := os.Getenv(k); val != "" {
				*dst = val
				return
			}
		}
	}

	switch cfg.AI.Provider {
	case "openai":
		setIfEmpty(&cfg.AI.APIKey, "OPENAI_API_KEY")
	case "gemini":
		setIfEmpty(&cfg.AI.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	setIfEmpty(&cfg.AI.ProjectID, "GOOGLE_CLOUD_PROJECT")
	setIfEmpty(&cfg.AI.Location, "GOOGLE_CLOUD_LOCATION")

	setIfEmpty(&cfg.Catalog.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setIfEmpty(&cfg.Catalog.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "festival-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 30000
	}
	if cfg.AI.Temperature == nil {
		temperature := 0.8
		cfg.AI.Temperature = &temperature
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 120000
	}
	if cfg.AI.MaxRetries == nil {
		retries := 2
		cfg.AI.MaxRetries = &retries
	}
	if cfg.AI.CacheTTL == 0 {
		cfg.AI.CacheTTL = int((72 * time.Hour).Seconds())
	}
	if cfg.AI.Location == "" && strings.HasPrefix(cfg.AI.Provider, "vertex") {
		cfg.AI.Location = "us-central1"
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}

	if cfg.Catalog.Spotify.BaseURL == "" {
		cfg.Catalog.Spotify.BaseURL = "https://api.spotify.com"
	}
	if cfg.Catalog.Spotify.AuthURL == "" {
		cfg.Catalog.Spotify.AuthURL = "https://accounts.spotify.com/api/token"
	}
	if cfg.Catalog.Spotify.Timeout == 0 {
		cfg.Catalog.Spotify.Timeout = 10000
	}

	if cfg.Resilience.FailureThreshold == 0 {
		cfg.Resilience.FailureThreshold = 5
	}
	if cfg.Resilience.ResetTimeout == 0 {
		cfg.Resilience.ResetTimeout = 60000
	}
	if cfg.Resilience.RetryAttempts == 0 {
		cfg.Resilience.RetryAttempts = 3
	}
	if cfg.Resilience.RetryBaseDelay == 0 {
		cfg.Resilience.RetryBaseDelay = 1000
	}

	if cfg.Extraction.ChunkSize == 0 {
		cfg.Extraction.ChunkSize = 24000
	}
	if cfg.Extraction.ChunkOverlap == 0 {
		cfg.Extraction.ChunkOverlap = 2000
	}
	if cfg.Extraction.MaxInputTokens == 0 {
		cfg.Extraction.MaxInputTokens = 100000
	}
	if cfg.Extraction.MaxConcurrency == 0 {
		cfg.Extraction.MaxConcurrency = 4
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 300000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields. Provider-specific
// credentials are checked again when the AI gateway is constructed.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if *cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative")
	}

	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", cfg.Cache.Backend)
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Extraction.ChunkOverlap >= cfg.Extraction.ChunkSize {
		return fmt.Errorf("extraction.chunk_overlap must be smaller than extraction.chunk_size")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       300000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
