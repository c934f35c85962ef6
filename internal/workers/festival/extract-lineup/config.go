// internal/workers/festival/extract-lineup/config.go
package extractlineup

import (
	"time"

	"festival-workers/internal/common/config"
)

const (
	// CharsPerToken converts input bytes into an estimated token count.
	CharsPerToken = 4
	// URLTokenEstimate is charged for every URL input, whose size is unknown.
	URLTokenEstimate = 2000
)

type Config struct {
	Timeout        time.Duration
	ChunkSize      int // characters
	ChunkOverlap   int // characters
	MaxInputTokens int
	MaxConcurrency int
	UseCache       bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        5 * time.Minute,
		ChunkSize:      24000,
		ChunkOverlap:   2000,
		MaxInputTokens: 100000,
		MaxConcurrency: 4,
		UseCache:       true,
	}
}

// ConfigFromApp overlays the extraction and worker settings on the defaults.
func ConfigFromApp(cfg *config.Config) *Config {
	c := LoadConfig()
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Extraction.ChunkSize > 0 {
		c.ChunkSize = cfg.Extraction.ChunkSize
	}
	if cfg.Extraction.ChunkOverlap > 0 {
		c.ChunkOverlap = cfg.Extraction.ChunkOverlap
	}
	if cfg.Extraction.MaxInputTokens > 0 {
		c.MaxInputTokens = cfg.Extraction.MaxInputTokens
	}
	if cfg.Extraction.MaxConcurrency > 0 {
		c.MaxConcurrency = cfg.Extraction.MaxConcurrency
	}
	return c
}
