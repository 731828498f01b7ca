// Package config handles configuration loading for testmend. It supports
// XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for testmend.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Generation GenerationConfig `mapstructure:"generation"`
	Dedupe     DedupeConfig     `mapstructure:"dedupe"`
	Variation  VariationConfig  `mapstructure:"variation"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	MaxTokens     int    `mapstructure:"max_tokens"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// GenerationConfig tunes the generation loop.
type GenerationConfig struct {
	// TargetCount is the batch size to aim for.
	TargetCount int `mapstructure:"target_count"`
	// MaxAttempts caps external generator calls per generate.
	MaxAttempts int `mapstructure:"max_attempts"`
	// MinYield is the per-attempt novelty ratio below which further
	// external calls stop.
	MinYield float64 `mapstructure:"min_yield"`
	// Framework is the default test framework profile (jest, mocha, vitest).
	Framework string `mapstructure:"framework"`
}

// DedupeConfig tunes duplicate suppression.
type DedupeConfig struct {
	// SimilarityThreshold is the fuzzy-name rejection threshold in (0,1].
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// VariationConfig tunes the variation synthesizer.
type VariationConfig struct {
	// Seed fixes the random source for reproducible runs. Zero selects a
	// time-based seed per generate call.
	Seed int64 `mapstructure:"seed"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TESTMEND_*)
// 2. Project config (.testmend.yaml in current directory or a parent)
// 3. User config (~/.config/testmend/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TESTMEND")
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")
	v.BindEnv("anthropic.aws_profile", "AWS_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.Generation.TargetCount < 0 {
		return fmt.Errorf("generation.target_count must be positive, got %d", c.Generation.TargetCount)
	}
	if c.Generation.MaxAttempts < 0 {
		return fmt.Errorf("generation.max_attempts must be positive, got %d", c.Generation.MaxAttempts)
	}
	if c.Generation.MinYield < 0 || c.Generation.MinYield > 1 {
		return fmt.Errorf("generation.min_yield must be in [0,1], got %g", c.Generation.MinYield)
	}
	if c.Dedupe.SimilarityThreshold < 0 || c.Dedupe.SimilarityThreshold > 1 {
		return fmt.Errorf("dedupe.similarity_threshold must be in [0,1], got %g", c.Dedupe.SimilarityThreshold)
	}

	if c.Generation.TargetCount == 0 {
		c.Generation.TargetCount = 12
	}
	if c.Generation.MaxAttempts == 0 {
		c.Generation.MaxAttempts = 2
	}
	if c.Generation.MinYield == 0 {
		c.Generation.MinYield = 0.5
	}
	if c.Generation.Framework == "" {
		c.Generation.Framework = "jest"
	}
	if c.Dedupe.SimilarityThreshold == 0 {
		c.Dedupe.SimilarityThreshold = 0.8
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = 8192
	}
	return nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("generation.target_count", cfg.Generation.TargetCount)
	v.Set("generation.max_attempts", cfg.Generation.MaxAttempts)
	v.Set("generation.min_yield", cfg.Generation.MinYield)
	v.Set("generation.framework", cfg.Generation.Framework)
	v.Set("dedupe.similarity_threshold", cfg.Dedupe.SimilarityThreshold)
	v.Set("variation.seed", cfg.Variation.Seed)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("anthropic.use_aws_bedrock", false)

	v.SetDefault("generation.target_count", 12)
	v.SetDefault("generation.max_attempts", 2)
	v.SetDefault("generation.min_yield", 0.5)
	v.SetDefault("generation.framework", "jest")

	v.SetDefault("dedupe.similarity_threshold", 0.8)
	v.SetDefault("variation.seed", 0)
}

// getUserConfigDir returns the XDG config directory for testmend.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "testmend")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "testmend")
	}
	return filepath.Join(home, ".config", "testmend")
}

// findProjectConfig searches for .testmend.yaml in the current directory and
// its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".testmend.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			MaxTokens: 8192,
		},
		Generation: GenerationConfig{
			TargetCount: 12,
			MaxAttempts: 2,
			MinYield:    0.5,
			Framework:   "jest",
		},
		Dedupe: DedupeConfig{
			SimilarityThreshold: 0.8,
		},
	}
}
