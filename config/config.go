// Package config loads ragqa settings from an optional config file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every key (llm.model -> RAGQA_LLM_MODEL).
const EnvPrefix = "RAGQA"

// Config holds all configuration for the CLI and server
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	Cleaning CleaningConfig `mapstructure:"cleaning"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LLMConfig configures the chat-completions endpoint
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	PromptsFile string        `mapstructure:"prompts_file"`
}

// Configured reports whether an endpoint is set.
func (l LLMConfig) Configured() bool {
	return strings.TrimSpace(l.BaseURL) != ""
}

func (l LLMConfig) Validate() error {
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	if l.Temperature < 0 {
		return fmt.Errorf("llm.temperature cannot be negative")
	}
	return nil
}

// ChunkingConfig selects the splitter and its parameters
type ChunkingConfig struct {
	Size     int    `mapstructure:"size"`
	Overlap  int    `mapstructure:"overlap"`
	Strategy string `mapstructure:"strategy"` // fixed or sentence
}

func (c ChunkingConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunking.size must be > 0")
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunking.overlap must be in [0, chunking.size)")
	}
	switch c.Strategy {
	case StrategyFixed, StrategySentence:
	default:
		return fmt.Errorf("chunking.strategy must be %q or %q, got %q", StrategyFixed, StrategySentence, c.Strategy)
	}
	return nil
}

// Chunking strategies.
const (
	StrategyFixed    = "fixed"
	StrategySentence = "sentence"
)

// CleaningConfig controls the text cleaner
type CleaningConfig struct {
	RemoveSpecialChars bool `mapstructure:"remove_special_chars"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	return c.LLM.Validate()
}

// Load reads configuration from path (if not empty) and the environment.
// DEEPSEEK_API_BASE_URL and DEEPSEEK_API_KEY are honoured for the endpoint
// and key in addition to RAGQA_LLM_BASE_URL and RAGQA_LLM_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("llm.model", "deepseek-r1")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("chunking.strategy", StrategyFixed)
	v.SetDefault("cleaning.remove_special_chars", true)
	v.SetDefault("server.address", ":8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv keys without defaults so Unmarshal sees them.
	if err := v.BindEnv("llm.base_url", EnvPrefix+"_LLM_BASE_URL", "DEEPSEEK_API_BASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "DEEPSEEK_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("llm.prompts_file"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Chunking.Strategy = strings.ToLower(strings.TrimSpace(cfg.Chunking.Strategy))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
