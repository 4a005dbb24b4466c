package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_OverlaysYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: mock\n  model: test-model\nretrieval:\n  top_k: 8\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
}

func TestApplyEnvOverrides_APIKeySelectsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLLMTimeout_ParsesConfiguredDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "15s"
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout())
}

func TestLLMTimeout_DefaultsOnMalformedValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not-a-duration"
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "made-up"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonMockProviderWithoutAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonMemoryStoreWithoutDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.TopK = 0
	assert.Error(t, cfg.Validate())
}
