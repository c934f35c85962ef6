// internal/workers/artist/enrich-artist/config.go
package enrichartist

import (
	"time"

	"festival-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	CatalogTimeout time.Duration
	UseCache       bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        2 * time.Minute,
		CatalogTimeout: 10 * time.Second,
		UseCache:       true,
	}
}

func ConfigFromApp(cfg *config.Config) *Config {
	c := LoadConfig()
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Catalog.Spotify.Timeout > 0 {
		c.CatalogTimeout = config.GetDuration(cfg.Catalog.Spotify.Timeout)
	}
	return c
}
