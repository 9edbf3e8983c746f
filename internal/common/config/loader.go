// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "http://localhost:8080/api"

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// over it and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)
	setDefaults(v)

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
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
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

func bindEnv(v *viper.Viper) {
	// CATALOG_BASE_URL overrides catalog.base_url, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// missing from the yaml files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "shopping-assistant")
	v.SetDefault("app.environment", "development")
	v.SetDefault("catalog.base_url", DefaultBaseURL)
	v.SetDefault("catalog.timeout", 10000)
	v.SetDefault("catalog.login.entry_point", "/login")
	v.SetDefault("catalog.breaker.enabled", false)
	v.SetDefault("catalog.breaker.max_requests", 5)
	v.SetDefault("catalog.breaker.interval", 30000)
	v.SetDefault("catalog.breaker.timeout", 60000)
	v.SetDefault("catalog.breaker.failure_threshold", 0.8)
	v.SetDefault("catalog.breaker.min_requests", 5)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.key_prefix", "")
	v.SetDefault("storage.file_path", "")
	v.SetDefault("storage.redis.address", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("suggestions.debounce", 300)
	v.SetDefault("suggestions.min_chars", 2)
	v.SetDefault("compare.capacity", 3)
	v.SetDefault("compare.key", "compareList")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("metrics.address", "")
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
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

// Find project root by looking for go.mod
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
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the variable names the web frontend used.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("API_BASE_URL"); val != "" && cfg.Catalog.BaseURL == DefaultBaseURL {
		cfg.Catalog.BaseURL = val
	}
	if cfg.Storage.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Storage.Redis.Password = val
		}
	}
}

// applyDefaults fills values that yaml may have set to zero explicitly.
func applyDefaults(cfg *Config) {
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = DefaultBaseURL
	}
	cfg.Catalog.BaseURL = strings.TrimRight(cfg.Catalog.BaseURL, "/")
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 10000
	}
	if cfg.Catalog.Login.EntryPoint == "" {
		cfg.Catalog.Login.EntryPoint = "/login"
	}
	if cfg.Suggestions.MinChars == 0 {
		cfg.Suggestions.MinChars = 2
	}
	if cfg.Compare.Capacity == 0 {
		cfg.Compare.Capacity = 3
	}
	if cfg.Compare.Key == "" {
		cfg.Compare.Key = "compareList"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Driver == "file" && cfg.Storage.FilePath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.Storage.FilePath = filepath.Join(dir, "shopping-assistant", "state.json")
		} else {
			cfg.Storage.FilePath = "shopping-assistant-state.json"
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

var validate = validator.New()

// validateConfig runs struct tag validation plus cross-field rules.
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Storage.Driver == "redis" && cfg.Storage.Redis.Address == "" {
		return fmt.Errorf("storage.redis.address is required for the redis driver")
	}
	if cfg.Storage.Driver == "file" && cfg.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path is required for the file driver")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
