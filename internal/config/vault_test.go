package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/errors"
)

func newTestLogger() *errors.Logger {
	return errors.NewDiscardLogger()
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid json number", input: json.Number("7.5"), expectError: true},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{}
	applyGeminiKeyToConfig(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "test-gemini-key", config.AI.Match.APIKey)

	config = &Config{AI: AIConfig{Match: OperationAIConfig{APIKey: "existing-match-key"}}}
	applyGeminiKeyToConfig(config, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", config.AI.APIKey)
	assert.Equal(t, "existing-match-key", config.AI.Match.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
}

func TestVaultClientExtractSecretVersion(t *testing.T) {
	vc := &VaultClient{logger: newTestLogger()}

	tests := []struct {
		name        string
		secret      *api.Secret
		expectError bool
		expected    int64
	}{
		{
			name:     "valid version",
			secret:   &api.Secret{Data: map[string]any{"metadata": map[string]any{"version": json.Number("42")}}},
			expected: 42,
		},
		{
			name:        "missing metadata field",
			secret:      &api.Secret{Data: map[string]any{"data": map[string]any{}}},
			expectError: true,
		},
		{
			name:        "missing version field",
			secret:      &api.Secret{Data: map[string]any{"metadata": map[string]any{"other": "value"}}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := vc.extractSecretVersion(tt.secret, "secret/data/test")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// fakeVault serves the health endpoint and a fixed set of KVv2 secrets.
func fakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_, _ = w.Write([]byte(`{"initialized":true,"sealed":false,"standby":false,"version":"1.15.0","cluster_name":"test"}`))
			return
		}
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		body := map[string]any{"data": map[string]any{"data": data, "metadata": map[string]any{"version": 3}}}
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestApplyVaultSecretsLoadsAllSecrets(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{
		"/v1/secret/data/resumatch/api":    {"keys": "k1, k2"},
		"/v1/secret/data/resumatch/gemini": {"api_key": "gemini-secret-key"},
		"/v1/secret/data/resumatch/jobs":   {"dsn": "postgres://u:p@db/jobs"},
	})
	defer srv.Close()

	config := &Config{
		Jobs: JobsConfig{Source: "postgres"},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				APIKeys:      "secret/data/resumatch/api",
				GeminiKey:    "secret/data/resumatch/gemini",
				JobsDatabase: "secret/data/resumatch/jobs",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))

	assert.Equal(t, []string{"k1", "k2"}, config.Server.APIKeys)
	assert.Equal(t, "gemini-secret-key", config.AI.APIKey)
	assert.Equal(t, "gemini-secret-key", config.AI.Match.APIKey)
	assert.Equal(t, "postgres://u:p@db/jobs", config.Jobs.DSN)
}

func TestApplyVaultSecretsMissingSecret(t *testing.T) {
	srv := fakeVault(t, map[string]map[string]any{})
	defer srv.Close()

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{GeminiKey: "secret/data/missing"},
		},
	}

	err := ApplyVaultSecrets(config, newTestLogger())
	assert.Error(t, err)
	assert.Empty(t, config.AI.APIKey)
}
