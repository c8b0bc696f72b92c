package config

import (
	"fmt"
	"os"

	"artisty_assistant/src/model"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Assistant struct {
		StrictKeywordMatch    *bool `yaml:"strict_keyword_match"`
		MaxSearchResults      int   `yaml:"max_search_results"`
		RecommendedHistoryCap int   `yaml:"recommended_history_cap"`
		DiversityWindow       int   `yaml:"diversity_window"`
		IntentFallbackNames   int   `yaml:"intent_fallback_names"`
		MaxToolIterations     int   `yaml:"max_tool_iterations"`
		SearchContextMessages int   `yaml:"search_context_messages"`
	} `yaml:"assistant"`
	Memory struct {
		MaxMessages int `yaml:"max_messages"`
		MaxTokens   int `yaml:"max_tokens"`
	} `yaml:"memory"`
	Regions map[string][]string `yaml:"regions"`
}

// LoadConfig loads the tuning file
func LoadConfig(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *YAMLConfig) validate() error {
	for region, countries := range c.Regions {
		if len(countries) == 0 {
			return fmt.Errorf("region %q has no countries", region)
		}
	}
	if c.Assistant.MaxSearchResults < 0 || c.Assistant.MaxToolIterations < 0 {
		return fmt.Errorf("assistant limits must not be negative")
	}
	return nil
}

// Apply overlays the values set in the file onto the environment configuration.
// Zero values leave the environment setting in place.
func (c *YAMLConfig) Apply(assistant *model.AssistantConfig, memory *model.MemoryConfig) {
	a := c.Assistant
	if a.StrictKeywordMatch != nil {
		assistant.StrictKeywordMatch = *a.StrictKeywordMatch
	}
	overlay(&assistant.MaxSearchResults, a.MaxSearchResults)
	overlay(&assistant.RecommendedHistoryCap, a.RecommendedHistoryCap)
	overlay(&assistant.DiversityWindow, a.DiversityWindow)
	overlay(&assistant.IntentFallbackNames, a.IntentFallbackNames)
	overlay(&assistant.MaxToolIterations, a.MaxToolIterations)
	overlay(&assistant.SearchContextMessages, a.SearchContextMessages)

	overlay(&memory.MaxMessages, c.Memory.MaxMessages)
	overlay(&memory.MaxTokens, c.Memory.MaxTokens)

	if len(c.Regions) > 0 {
		assistant.Regions = c.Regions
	}
}

func overlay(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}
