// internal/workers/recommendation/recommend-artists/config.go
package recommendartists

import (
	"time"

	"festival-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	UseCache bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  2 * time.Minute,
		UseCache: true,
	}
}

func ConfigFromApp(cfg *config.Config) *Config {
	c := LoadConfig()
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	return c
}
