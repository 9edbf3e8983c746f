// internal/core/catalog-client/config.go
package catalogclient

import (
	"time"

	"shopping-assistant/internal/common/config"
	commonhttp "shopping-assistant/internal/common/http"
)

type Config struct {
	BaseURL            string
	Timeout            time.Duration
	LoginEntryPoint    string
	MinSuggestionChars int
	Breaker            *commonhttp.BreakerSettings
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		BaseURL:            cfg.Catalog.BaseURL,
		Timeout:            config.GetDuration(cfg.Catalog.Timeout),
		LoginEntryPoint:    cfg.Catalog.Login.EntryPoint,
		MinSuggestionChars: cfg.Suggestions.MinChars,
	}
	if b := cfg.Catalog.Breaker; b.Enabled {
		c.Breaker = &commonhttp.BreakerSettings{
			Name:             "catalog",
			MaxRequests:      b.MaxRequests,
			Interval:         config.GetDuration(b.Interval),
			Timeout:          config.GetDuration(b.Timeout),
			FailureThreshold: b.FailureThreshold,
			MinRequests:      b.MinRequests,
		}
	}
	return c
}

func defaultConfig(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = config.DefaultBaseURL
	}
	if out.Timeout == 0 {
		out.Timeout = 10 * time.Second
	}
	if out.LoginEntryPoint == "" {
		out.LoginEntryPoint = "/login"
	}
	if out.MinSuggestionChars <= 0 {
		out.MinSuggestionChars = 2
	}
	return &out
}
