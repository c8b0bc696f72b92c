package src

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", config.LLMConfig.Provider)
	assert.Equal(t, "gpt-4o-mini", config.LLMConfig.Model)
	assert.InDelta(t, 0.3, config.LLMConfig.Temperature, 0.0001)
	assert.Equal(t, 5000, config.ServerConfig.Port)
	assert.Equal(t, "art.txt", config.AssistantConfig.InventoryPath)
	assert.Equal(t, "/opt/art.txt", config.AssistantConfig.InventoryFallbackPath)
	assert.Equal(t, 6, config.AssistantConfig.MaxSearchResults)
	assert.Equal(t, 4, config.AssistantConfig.MaxToolIterations)
	assert.False(t, config.AssistantConfig.StrictKeywordMatch)
	assert.Equal(t, time.Hour, config.MemoryConfig.TTL)
	assert.Equal(t, "0.0.0.0:5000", config.Addr())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("PORT", "8080")
	t.Setenv("STRICT_KEYWORD_MATCH", "true")
	t.Setenv("MEMORY_TTL", "15m")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLMConfig.Provider)
	assert.Equal(t, "llama3", config.LLMConfig.Model)
	assert.Equal(t, 8080, config.ServerConfig.Port)
	assert.True(t, config.AssistantConfig.StrictKeywordMatch)
	assert.Equal(t, 15*time.Minute, config.MemoryConfig.TTL)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mystery")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM_PROVIDER")
}
