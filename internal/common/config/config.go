// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Suggestions SuggestionsConfig `mapstructure:"suggestions"`
	Compare     CompareConfig     `mapstructure:"compare"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// CatalogConfig points the client at the remote catalog REST API.
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout int           `mapstructure:"timeout" validate:"gte=0"` // milliseconds
	Breaker BreakerConfig `mapstructure:"breaker"`
	Login   LoginConfig   `mapstructure:"login"`
}

// BreakerConfig configures the circuit breaker in front of the catalog transport.
type BreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // milliseconds
	Timeout          int     `mapstructure:"timeout"`  // milliseconds
	FailureThreshold float64 `mapstructure:"failure_threshold" validate:"gte=0,lte=1"`
	MinRequests      uint32  `mapstructure:"min_requests"`
}

type LoginConfig struct {
	EntryPoint string `mapstructure:"entry_point"`
}

// StorageConfig selects the client-local store.
type StorageConfig struct {
	Driver    string      `mapstructure:"driver" validate:"oneof=redis file memory"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	FilePath  string      `mapstructure:"file_path"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SuggestionsConfig struct {
	Debounce int `mapstructure:"debounce" validate:"gte=0"` // milliseconds
	MinChars int `mapstructure:"min_chars" validate:"gte=1"`
}

type CompareConfig struct {
	Capacity int    `mapstructure:"capacity" validate:"gte=1"`
	Key      string `mapstructure:"key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
