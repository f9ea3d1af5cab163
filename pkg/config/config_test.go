package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "HF_API_TOKEN", "TELEGRAM_TOKEN", "PORT", "TRIAGE_OPENAI_MODEL", "TRIAGE_SERVER_PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 200, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, 300, cfg.Triage.MaxTokens)
	assert.Equal(t, "auto", cfg.Model.Provider)
	assert.Equal(t, 512, cfg.Model.MaxInputChars)
	assert.Equal(t, 0.85, cfg.Policy.KeywordConfidence)
	assert.Equal(t, "Improdutivo", cfg.Policy.TieBreak)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HF_API_TOKEN", "hf-test")
	t.Setenv("PORT", "8080")
	t.Setenv("TRIAGE_OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "hf-test", cfg.Model.HFToken)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
model:
  provider: none
policy:
  tie_break: Produtivo
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Model.Provider)
	assert.Equal(t, "Produtivo", cfg.Policy.TieBreak)
	assert.Equal(t, "Produtivo", cfg.Policy.DefaultCategory)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
