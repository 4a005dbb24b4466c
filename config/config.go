// Package config loads the settings that wire graph.Runner's node
// dependencies: model provider selection, storage DSNs, cache, retrieval
// tuning, and web search.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ragchat configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	WebSearch WebSearchConfig `yaml:"web_search"`
	Worker    WorkerConfig    `yaml:"worker"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig selects and authenticates the chat model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "anthropic", "openai", "google", or "mock"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

// StoreConfig selects the conversation/memory persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "mysql", "postgres", "memory"
	DSN    string `yaml:"dsn"`
}

// CacheConfig configures the Redis memory-load front cache. Addr empty
// disables the cache layer entirely.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// RetrievalConfig tunes the local-RAG retriever.
type RetrievalConfig struct {
	TopK              int     `yaml:"top_k"`
	ScoreThreshold    float64 `yaml:"score_threshold"`
	EmptyIndexMessage string  `yaml:"empty_index_message"`
}

// WebSearchConfig enables searchIntent augmentation.
type WebSearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"max_results"`
}

// WorkerConfig holds a worker pool capacity. ragchat.New does not read it;
// worker.New sizes the pool at min(4, logical CPUs).
type WorkerConfig struct {
	Capacity int `yaml:"capacity"`
}

// LoggingConfig holds zap logger settings. The CLI does not read them; it
// builds its logger from the --verbose flag.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the built-in defaults: in-memory store, no cache,
// mock model, web search disabled. Suitable for local demos without any
// external service configured.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "mock",
			Model:    "gpt-4o-mini",
			Timeout:  "60s",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Retrieval: RetrievalConfig{
			TopK:              4,
			ScoreThreshold:    0.0,
			EmptyIndexMessage: "知识库为空",
		},
		WebSearch: WebSearchConfig{
			Endpoint:   "https://api.tavily.com/search",
			MaxResults: 5,
		},
		Worker: WorkerConfig{
			Capacity: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads YAML configuration from path, applying it over DefaultConfig.
// A missing file is not an error: defaults (plus env overrides) apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets deployment secrets (API keys, DSNs) come from the
// environment instead of the checked-in config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "google"
	}
	if dsn := os.Getenv("RAGCHAT_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
	if addr := os.Getenv("RAGCHAT_REDIS_ADDR"); addr != "" {
		c.Cache.Addr = addr
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		c.WebSearch.APIKey = key
		c.WebSearch.Enabled = true
	}
}

// LLMTimeout returns the configured LLM call timeout, defaulting to 60s on
// a missing or malformed value.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// CacheTTL returns the configured cache entry TTL, 0 (no expiration) on a
// missing or malformed value.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks that the configuration is internally consistent enough
// to build a Runner from.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "mock", "anthropic", "openai", "google":
	default:
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.Provider != "mock" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm provider %s requires an api_key", c.LLM.Provider)
	}

	switch c.Store.Driver {
	case "memory", "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("invalid store driver: %s", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}

	return nil
}
