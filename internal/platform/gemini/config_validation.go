package gemini

import (
	"fmt"

	"github.com/phrazzld/leadwire-api/internal/config"
	"github.com/phrazzld/leadwire-api/internal/generation"
)

// validateConfig checks the settings the analyzer cannot run without.
// Out-of-range retry settings are not errors; withDefaults repairs them.
func validateConfig(cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// withDefaults replaces out-of-range values with defaults.
func withDefaults(cfg config.LLMConfig) config.LLMConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = 2
	}
	if cfg.BreakerFailureThreshold < 1 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeoutSeconds < 1 {
		cfg.BreakerTimeoutSeconds = 60
	}
	return cfg
}
