package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"resumatch/internal/types"
)

const (
	minLLMTimeout = 10 * time.Second
	maxLLMTimeout = 30 * time.Second
)

var getenv = os.Getenv

// applyFallbacks applies environment variable fallbacks and derived defaults
func (c *Config) applyFallbacks() {
	c.applyAPIKeyFallbacks()
	c.applyMatchDefaults()
	c.applyObservabilityDefaults()
}

func (c *Config) applyAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := getenv("RESUMATCH_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
	// Env values arrive as one comma separated string
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))

	// Legacy variable name used by most Gemini tooling
	if c.AI.APIKey == "" {
		c.AI.APIKey = getenv("GEMINI_API_KEY")
	}
}

func (c *Config) applyMatchDefaults() {
	if c.Match.LLMTimeout < minLLMTimeout {
		c.Match.LLMTimeout = minLLMTimeout
	}
	if c.Match.LLMTimeout > maxLLMTimeout {
		c.Match.LLMTimeout = maxLLMTimeout
	}
	if c.Match.RankConcurrency <= 0 {
		c.Match.RankConcurrency = 1
	}
	if c.ML.MaxSequenceLength <= 0 {
		switch strings.ToLower(c.ML.Kind) {
		case "transformer":
			c.ML.MaxSequenceLength = 512
		default:
			c.ML.MaxSequenceLength = 500
		}
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid. A missing LLM API key is not
// an error: the LLM strategy then reports unavailable and falls back.
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if _, ok := types.LookupStrategy(c.Match.DefaultStrategy); !ok {
		return fmt.Errorf("invalid default strategy: %s", c.Match.DefaultStrategy)
	}
	for level, years := range c.Match.ExperienceThresholds {
		if years < 0 {
			return fmt.Errorf("experience threshold for %q must not be negative", level)
		}
	}

	if err := c.validateML(); err != nil {
		return fmt.Errorf("ml configuration error: %w", err)
	}
	if err := c.validateJobs(); err != nil {
		return fmt.Errorf("jobs configuration error: %w", err)
	}

	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS requires both certFile and keyFile")
	}

	return nil
}

func (c *Config) validateML() error {
	if !c.ML.Enabled {
		return nil
	}
	switch strings.ToLower(c.ML.Kind) {
	case "lstm":
		if c.ML.TokenizerFile == "" {
			return fmt.Errorf("lstm kind requires tokenizerFile")
		}
	case "transformer":
	default:
		return fmt.Errorf("invalid kind: %s (must be 'lstm' or 'transformer')", c.ML.Kind)
	}
	if c.ML.Endpoint == "" || c.ML.ModelName == "" {
		return fmt.Errorf("endpoint and modelName are required")
	}
	if c.ML.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func (c *Config) validateJobs() error {
	switch strings.ToLower(c.Jobs.Source) {
	case "", "none":
	case "file":
		if c.Jobs.Path == "" {
			return fmt.Errorf("file source requires path")
		}
	case "sqlite":
		if c.Jobs.Path == "" && c.Jobs.DSN == "" {
			return fmt.Errorf("sqlite source requires path or dsn")
		}
	case "postgres":
		if c.Jobs.DSN == "" {
			return fmt.Errorf("postgres source requires dsn")
		}
	default:
		return fmt.Errorf("invalid source: %s (must be 'none', 'file', 'sqlite' or 'postgres')", c.Jobs.Source)
	}
	if c.Jobs.Table != "" && !isIdentifier(c.Jobs.Table) {
		return fmt.Errorf("invalid table name: %s", c.Jobs.Table)
	}
	return nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
	if !opCfg.CircuitBreaker.Enabled && opCfg.CircuitBreaker.MaxRequests == 0 {
		opCfg.CircuitBreaker = c.AI.CircuitBreaker
	}
	if opCfg.CustomPrompts.SystemPrompt == "" {
		opCfg.CustomPrompts.SystemPrompt = c.AI.CustomPrompts.SystemPrompt
	}
	if opCfg.CustomPrompts.UserPrompt == "" {
		opCfg.CustomPrompts.UserPrompt = c.AI.CustomPrompts.UserPrompt
	}
}

// GetMatchAIConfig returns the LLM configuration for the match operation with
// fallback to the global AI settings.
func (c *Config) GetMatchAIConfig() OperationAIConfig {
	config := c.AI.Match
	c.applyOperationDefaults(&config)
	return config
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMATCH_AI_APIKEY",
		"RESUMATCH_AI_MODEL",
		"RESUMATCH_ML_ENABLED",
		"RESUMATCH_MATCH_DEFAULTSTRATEGY",
		"RESUMATCH_JOBS_SOURCE",
		"RESUMATCH_JOBS_DSN",
		"RESUMATCH_SERVER_PORT",
		"RESUMATCH_APP_LOGLEVEL",
		"RESUMATCH_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := getenv(envVar); value != "" {
			lower := strings.ToLower(envVar)
			if strings.Contains(lower, "key") || strings.Contains(lower, "dsn") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET*** (llm strategy will fall back)")
	}
	log.Printf("[CONFIG] ML Backend: enabled=%t kind=%s model=%s", c.ML.Enabled, c.ML.Kind, c.ML.ModelName)
	log.Printf("[CONFIG] Default Strategy: %s", c.Match.DefaultStrategy)
	log.Printf("[CONFIG] LLM Timeout: %s", c.Match.LLMTimeout)
	log.Printf("[CONFIG] Job Source: %s", c.Jobs.Source)
	log.Printf("[CONFIG] Server: %s:%s (tls=%t)", c.Server.Host, c.Server.Port, c.Server.TLS.Enabled())
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
