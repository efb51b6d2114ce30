// Package config loads the engine configuration from a YAML file and the
// environment via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/polytran/polytran/internal/provider"
)

// ProviderConfig describes one backend in the configuration file. Either
// APIKey or APIKeys is set; multiple keys put the provider behind a
// rotating credential pool.
type ProviderConfig struct {
	ID                string   `mapstructure:"id"`
	Family            string   `mapstructure:"family"`
	Model             string   `mapstructure:"model"`
	Endpoint          string   `mapstructure:"endpoint"`
	APIKey            string   `mapstructure:"api_key"`
	APIKeys           []string `mapstructure:"api_keys"`
	KeyNames          []string `mapstructure:"key_names"`
	MaxTokens         int      `mapstructure:"max_tokens"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute"`
	TokensPerMinute   int      `mapstructure:"tokens_per_minute"`
	DailyTokenBudget  int      `mapstructure:"daily_token_budget"`
}

// EmbeddingsConfig points at an OpenAI-compatible embeddings endpoint used
// by the consensus builder. Optional; without it agreement degrades to a
// lexical measure.
type EmbeddingsConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// FallbackConfig enables the deterministic Google Cloud Translate path
// used when no AI provider is available.
type FallbackConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Credentials string `mapstructure:"credentials"`
}

// Config is the full engine configuration.
type Config struct {
	Providers    []ProviderConfig `mapstructure:"providers"`
	Priority     []string         `mapstructure:"priority"`
	MaxProviders int              `mapstructure:"max_providers"`
	CallTimeout  time.Duration    `mapstructure:"call_timeout"`
	Embeddings   EmbeddingsConfig `mapstructure:"embeddings"`
	Fallback     FallbackConfig   `mapstructure:"fallback"`
	DBPath       string           `mapstructure:"db_path"`
}

// Load reads the configuration file at path. When path is empty, viper
// searches for polytran.yaml in the working directory and
// $HOME/.config/polytran. POLYTRAN_-prefixed environment variables
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("polytran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/polytran")
	}

	v.SetEnvPrefix("POLYTRAN")
	v.AutomaticEnv()

	v.SetDefault("max_providers", 3)
	v.SetDefault("call_timeout", "60s")
	v.SetDefault("db_path", "polytran.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("provider with empty id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
		if p.APIKey == "" && len(p.APIKeys) == 0 {
			return fmt.Errorf("provider %q: api_key or api_keys required", p.ID)
		}
	}
	for _, id := range c.Priority {
		if !seen[id] {
			return fmt.Errorf("priority references unknown provider %q", id)
		}
	}
	return nil
}

// Descriptors converts the provider configurations into immutable registry
// descriptors.
func (c *Config) Descriptors() []provider.Descriptor {
	descriptors := make([]provider.Descriptor, 0, len(c.Providers))
	for _, p := range c.Providers {
		descriptors = append(descriptors, provider.Descriptor{
			ID:                p.ID,
			Family:            provider.Family(p.Family),
			Model:             p.Model,
			Endpoint:          p.Endpoint,
			MaxTokens:         p.MaxTokens,
			RequestsPerMinute: p.RequestsPerMinute,
			TokensPerMinute:   p.TokensPerMinute,
			DailyTokenBudget:  p.DailyTokenBudget,
		})
	}
	return descriptors
}
