package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. LEADWIRE_SERVER_PORT for server.port.
const EnvPrefix = "LEADWIRE"

// keys without defaults still need to be registered so that
// AutomaticEnv picks them up during Unmarshal
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
	"llm.prompt_template_path",
	"cache.redis_url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit_per_minute", 120)

	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.breaker_failure_threshold", 5)
	v.SetDefault("llm.breaker_timeout_seconds", 60)

	v.SetDefault("dispatcher.max_concurrent", 3)
	v.SetDefault("dispatcher.task_timeout_seconds", 90)

	v.SetDefault("scoring.dampening", 0.3)
	v.SetDefault("scoring.reason_threshold", 0.5)
	v.SetDefault("scoring.max_reasons", 2)
	v.SetDefault("scoring.learning_step", 0.25)

	v.SetDefault("cache.ttl_minutes", 24*60)
}

// Load configuration from a .env file, an optional config.yaml and
// environment variables. Environment variables take precedence over
// values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads the same sources as Load but validates only the
// database section. Migrations run without LLM or auth settings.
func LoadDatabase() (*DatabaseConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg.Database); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg.Database, nil
}

func read() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
