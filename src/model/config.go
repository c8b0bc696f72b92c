package model

import "time"

// ----------------------------------------------------
// ================ Logging ================
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/assistant.log"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
}

// ----------------------------------------------------
// ================ LLM ================
// LLMConfig selects the chat model provider used by every pass
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	Model       string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL"`
	Temperature float32       `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"800"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	// Provider specific credentials
	DeepSeekAPIKey string `envconfig:"DEEPSEEK_API_KEY"`
	ArkAPIKey      string `envconfig:"ARK_API_KEY"`
	OllamaBaseURL  string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
}

// ----------------------------------------------------
// ================ Memory ================
type MemoryConfig struct {
	RedisURL    string        `envconfig:"REDIS_URL"`
	TTL         time.Duration `envconfig:"MEMORY_TTL" default:"1h"`
	MaxMessages int           `envconfig:"MEMORY_MAX_MESSAGES" default:"20"`
	MaxTokens   int           `envconfig:"MEMORY_MAX_TOKENS" default:"2000"`
}

// ----------------------------------------------------
// ================ Server ================
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"90s"`
}

// ----------------------------------------------------
// ================ Assistant ================
// AssistantConfig holds the pipeline tunables; the YAML tuning file overlays it
type AssistantConfig struct {
	InventoryPath         string        `envconfig:"INVENTORY_PATH" default:"art.txt"`
	InventoryFallbackPath string        `envconfig:"INVENTORY_FALLBACK_PATH" default:"/opt/art.txt"`
	TuningPath            string        `envconfig:"CONFIG_PATH" default:"config.yaml"`
	StrictKeywordMatch    bool          `envconfig:"STRICT_KEYWORD_MATCH" default:"false"`
	MaxSearchResults      int           `envconfig:"MAX_SEARCH_RESULTS" default:"6"`
	RecommendedHistoryCap int           `envconfig:"RECOMMENDED_HISTORY_CAP" default:"50"`
	DiversityWindow       int           `envconfig:"DIVERSITY_WINDOW" default:"5"`
	IntentFallbackNames   int           `envconfig:"INTENT_FALLBACK_NAMES" default:"30"`
	MaxToolIterations     int           `envconfig:"MAX_TOOL_ITERATIONS" default:"4"`
	SearchContextMessages int           `envconfig:"SEARCH_CONTEXT_MESSAGES" default:"10"`
	SlowTurnThreshold     time.Duration `envconfig:"SLOW_TURN_THRESHOLD" default:"5s"`

	// Regions maps a lower-cased region word to member countries. Set from the tuning file.
	Regions map[string][]string `ignored:"true"`
}
