package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "QUIZ"

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the config file. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	return load(".")
}

// LoadFromDir is Load with the config file looked up in dir.
func LoadFromDir(dir string) (*Config, error) {
	return load(dir)
}

func load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can bind it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.request_timeout_seconds", 120)

	v.SetDefault("import.chunk_max_retries", 2)
	v.SetDefault("import.retry_base_delay_ms", 1200)
	v.SetDefault("import.retention_hours", 24)
	v.SetDefault("import.timeout_hours", 6)
	v.SetDefault("import.max_finished_keep", 200)
	v.SetDefault("import.default_max_concurrent", 2)
	v.SetDefault("import.default_batch_delay_seconds", 2)
	v.SetDefault("import.default_chunk_size", 1000)
	v.SetDefault("import.janitor_schedule", "@every 10m")

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
}
