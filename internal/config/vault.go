package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/vault/api"
	"resumatch/internal/errors"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys      string `mapstructure:"apiKeys"`      // "keys": comma separated server API keys
	GeminiKey    string `mapstructure:"geminiKey"`    // "api_key"
	JobsDatabase string `mapstructure:"jobsDatabase"` // "dsn"
}

// VaultClient reads KVv2 secrets.
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// VaultSecret is the data and version of one KVv2 secret.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

func orDiscard(logger *errors.Logger) *errors.Logger {
	if logger == nil {
		return errors.NewDiscardLogger()
	}
	return logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	logger = orDiscard(logger)
	if !cfg.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiCfg.Address, err)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the configured token over the token file.
func resolveVaultToken(cfg VaultConfig, logger *errors.Logger) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
		orDiscard(logger).Debug("Vault token read from file", "file", cfg.TokenFile)
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads a KVv2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	return parseVersionValue(raw, path)
}

func parseVersionValue(raw any, path string) (int64, error) {
	var (
		version int64
		err     error
	)
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err = v.Int64()
	case string:
		version, err = strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
	if err != nil {
		return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}
	return version, nil
}

// GetStringSecret reads one string field of a KVv2 secret.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key].(string)
	if !ok {
		return "", fmt.Errorf("key '%s' missing or not a string in secret %s", key, path)
	}
	vc.logger.Debug("Secret read from Vault", "path", path, "key", key, "version", secret.Version)
	return value, nil
}

// vaultBinding copies one secret field into the config.
type vaultBinding struct {
	name  string
	path  string
	key   string
	apply func(cfg *Config, value string) bool
}

func vaultBindings(cfg *Config) []vaultBinding {
	return []vaultBinding{
		{"API keys", cfg.Vault.Secrets.APIKeys, "keys", func(c *Config, v string) bool {
			keys := splitList(v)
			if len(keys) == 0 {
				return false
			}
			c.Server.APIKeys = keys
			return true
		}},
		{"Gemini API key", cfg.Vault.Secrets.GeminiKey, "api_key", func(c *Config, v string) bool {
			if v == "" {
				return false
			}
			applyGeminiKeyToConfig(c, v)
			return true
		}},
		{"job store DSN", cfg.Vault.Secrets.JobsDatabase, "dsn", func(c *Config, v string) bool {
			if v == "" {
				return false
			}
			c.Jobs.DSN = v
			return true
		}},
	}
}

// ApplyVaultSecrets overrides API keys, the Gemini key and the job store DSN
// with values from Vault. It is a no-op when Vault is disabled.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	logger = orDiscard(logger)
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	for _, b := range vaultBindings(config) {
		if b.path == "" {
			continue
		}
		value, err := client.GetStringSecret(b.path, b.key)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		if b.apply(config, value) {
			logger.Info("Secret applied from Vault", "secret", b.name, "path", b.path)
		} else {
			logger.Warn("Empty secret in Vault", "secret", b.name, "path", b.path)
		}
	}
	return nil
}

// applyGeminiKeyToConfig sets the global key and the match key unless the
// match operation has its own.
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	if config.AI.Match.APIKey == "" {
		config.AI.Match.APIKey = geminiKey
	}
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
