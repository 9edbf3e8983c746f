// internal/core/suggestion-query/config.go
package suggestionquery

import (
	"time"

	"shopping-assistant/internal/common/config"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultMinChars = 2
)

type Config struct {
	Debounce time.Duration
	MinChars int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Debounce: config.GetDuration(cfg.Suggestions.Debounce),
		MinChars: cfg.Suggestions.MinChars,
	}
}

func defaultConfig(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	out := *c
	if out.Debounce <= 0 {
		out.Debounce = DefaultDebounce
	}
	if out.MinChars <= 0 {
		out.MinChars = DefaultMinChars
	}
	return &out
}
