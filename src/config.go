package src

import (
	"artisty_assistant/src/model"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig       model.LogConfig       `envconfig:""`
	LLMConfig       model.LLMConfig       `envconfig:""`
	MemoryConfig    model.MemoryConfig    `envconfig:""`
	ServerConfig    model.ServerConfig    `envconfig:""`
	AssistantConfig model.AssistantConfig `envconfig:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.LLMConfig.Provider {
	case "openai", "ollama", "deepseek", "ark":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMConfig.Provider)
	}

	if c.ServerConfig.Port <= 0 || c.ServerConfig.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.ServerConfig.Port)
	}

	if c.AssistantConfig.MaxSearchResults <= 0 {
		return fmt.Errorf("MAX_SEARCH_RESULTS must be positive")
	}

	if c.AssistantConfig.MaxToolIterations <= 0 {
		return fmt.Errorf("MAX_TOOL_ITERATIONS must be positive")
	}

	return nil
}

// Addr is the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerConfig.Host, c.ServerConfig.Port)
}
