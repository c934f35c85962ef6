// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	AI         AIConfig                `mapstructure:"ai"`
	Cache      CacheConfig             `mapstructure:"cache"`
	Catalog    CatalogConfig           `mapstructure:"catalog"`
	Resilience ResilienceConfig        `mapstructure:"resilience"`
	Extraction ExtractionConfig        `mapstructure:"extraction"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	HTTP       HTTPConfig              `mapstructure:"http"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AIConfig selects one provider and model for the whole process.
type AIConfig struct {
	Provider string `mapstructure:"provider"` // openai | gemini | vertex | vertex-service-account
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`

	APIKey string `mapstructure:"api_key"`

	ProjectID    string `mapstructure:"project_id"`
	Location     string `mapstructure:"location"`
	ClientEmail  string `mapstructure:"client_email"`
	PrivateKey   string `mapstructure:"private_key"`
	PrivateKeyID string `mapstructure:"private_key_id"`

	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"` // unset means 0.8
	Timeout     int      `mapstructure:"timeout"`     // milliseconds, per attempt
	MaxRetries  *int     `mapstructure:"max_retries"` // unset means 2; 0 disables retries
	CacheTTL    int      `mapstructure:"cache_ttl"`   // seconds
}

// CacheConfig picks the response cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	Prefix  string `mapstructure:"prefix"`
}

type CatalogConfig struct {
	Spotify struct {
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		BaseURL      string `mapstructure:"base_url"`
		AuthURL      string `mapstructure:"auth_url"`
		Timeout      int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"spotify"`
}

// Enabled reports whether catalog credentials are present.
func (c CatalogConfig) Enabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

type ResilienceConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	ResetTimeout     int `mapstructure:"reset_timeout"` // milliseconds
	RetryAttempts    int `mapstructure:"retry_attempts"`
	RetryBaseDelay   int `mapstructure:"retry_base_delay"` // milliseconds
}

type ExtractionConfig struct {
	ChunkSize      int `mapstructure:"chunk_size"`    // characters
	ChunkOverlap   int `mapstructure:"chunk_overlap"` // characters
	MaxInputTokens int `mapstructure:"max_input_tokens"`
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}
