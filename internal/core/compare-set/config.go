// internal/core/compare-set/config.go
package compareset

import "shopping-assistant/internal/common/config"

const (
	DefaultCapacity = 3
	DefaultKey      = "compareList"
)

type Config struct {
	Capacity int
	Key      string
	// ResolveConcurrency bounds the parallel product fetches in Resolve.
	ResolveConcurrency int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Capacity:           cfg.Compare.Capacity,
		Key:                cfg.Compare.Key,
		ResolveConcurrency: DefaultCapacity,
	}
}

func defaultConfig(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	out := *c
	if out.Capacity <= 0 {
		out.Capacity = DefaultCapacity
	}
	if out.Key == "" {
		out.Key = DefaultKey
	}
	if out.ResolveConcurrency <= 0 {
		out.ResolveConcurrency = out.Capacity
	}
	return &out
}
