package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" validate:"required"`
	Scoring    ScoringConfig    `mapstructure:"scoring" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// RateLimitPerMinute caps requests per client IP. Zero disables limiting.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// AuthConfig contains the settings needed to validate bearer tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	// PromptTemplatePath overrides the built-in analysis prompt when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
	// BreakerFailureThreshold is the number of consecutive API failures
	// that opens the circuit in front of the model.
	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold" validate:"gte=1"`
	BreakerTimeoutSeconds   int `mapstructure:"breaker_timeout_seconds" validate:"gte=1"`
}

// DispatcherConfig bounds how many expensive per-item operations run at once.
type DispatcherConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=1,lte=64"`
	// TaskTimeoutSeconds sets a deadline on each task's context. Zero means none.
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds" validate:"gte=0"`
}

// ScoringConfig holds the tunable constants of the preference ranking.
type ScoringConfig struct {
	Dampening       float64 `mapstructure:"dampening" validate:"gt=0,lte=1"`
	ReasonThreshold float64 `mapstructure:"reason_threshold" validate:"gte=0"`
	MaxReasons      int     `mapstructure:"max_reasons" validate:"gte=1,lte=10"`
	// LearningStep is the weight change applied per category on a decision.
	LearningStep float64 `mapstructure:"learning_step" validate:"gt=0,lte=5"`
}

// CacheConfig configures the analysis dedup cache. An empty RedisURL
// selects the in-process cache.
type CacheConfig struct {
	RedisURL   string `mapstructure:"redis_url" validate:"omitempty,url"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gte=1"`
}
