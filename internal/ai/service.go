package ai

import (
	"fmt"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// NewGenerator creates the TextGenerator for the configured provider.
func NewGenerator(cfg *config.OperationAIConfig, logger *errors.Logger) (TextGenerator, error) {
	logger.Debug("Initializing LLM backend",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	if cfg.APIKey == "" {
		return nil, errors.NewBackendUnavailable("no API key configured for the LLM backend", nil).
			WithContext("provider", cfg.Provider)
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}
