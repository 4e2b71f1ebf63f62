package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile, when set, receives a copy of every log record as JSON.
	LogFile string `mapstructure:"log_file"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend. "memory" keeps everything in
	// process and is meant for local runs and tests.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`
}

// AuthConfig contains authentication settings. An empty JWTSecret disables
// bearer-token checks on the API.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=0"`
}

// LLMConfig selects and configures the chat-completion provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	// APIKey may be left empty; every chunk then fails permanently with a
	// configuration error instead of the server refusing to start.
	APIKey                string  `mapstructure:"api_key"`
	Model                 string  `mapstructure:"model"`
	BaseURL               string  `mapstructure:"base_url" validate:"omitempty,url"`
	MaxTokens             int     `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature           float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"gt=0"`
}

// RequestTimeout returns the per-call timeout for completion requests.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ImportConfig tunes the import pipeline. The getters apply lower bounds so
// that a misconfigured value degrades to the nearest sane setting.
type ImportConfig struct {
	ChunkMaxRetries          int    `mapstructure:"chunk_max_retries" validate:"gte=0"`
	RetryBaseDelayMs         int    `mapstructure:"retry_base_delay_ms" validate:"gte=0"`
	RetentionHours           int    `mapstructure:"retention_hours" validate:"gte=0"`
	TimeoutHours             int    `mapstructure:"timeout_hours" validate:"gte=0"`
	MaxFinishedKeep          int    `mapstructure:"max_finished_keep" validate:"gte=0"`
	DefaultMaxConcurrent     int    `mapstructure:"default_max_concurrent" validate:"gte=0"`
	DefaultBatchDelaySeconds int    `mapstructure:"default_batch_delay_seconds" validate:"gte=0"`
	DefaultChunkSize         int    `mapstructure:"default_chunk_size" validate:"gte=0"`
	JanitorSchedule          string `mapstructure:"janitor_schedule"`
}

// MaxRetries returns the number of retries after the first attempt of a chunk.
func (c ImportConfig) MaxRetries() int {
	return max(c.ChunkMaxRetries, 0)
}

// RetryBaseDelay returns the linear backoff unit, at least 100ms.
func (c ImportConfig) RetryBaseDelay() time.Duration {
	return time.Duration(max(c.RetryBaseDelayMs, 100)) * time.Millisecond
}

// Retention returns how long finished jobs are kept, at least one hour.
func (c ImportConfig) Retention() time.Duration {
	return time.Duration(max(c.RetentionHours, 1)) * time.Hour
}

// Timeout returns how long a job may stay processing, at least one hour.
func (c ImportConfig) Timeout() time.Duration {
	return time.Duration(max(c.TimeoutHours, 1)) * time.Hour
}

// FinishedKeep returns the number of finished jobs kept, at least 10.
func (c ImportConfig) FinishedKeep() int {
	return max(c.MaxFinishedKeep, 10)
}

// TaskConfig sizes the background task runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}
