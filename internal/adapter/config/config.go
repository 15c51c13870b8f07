// Package config loads gateway configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the whole gateway configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
	AWS       AWSConfig       `yaml:"aws"`
	Usage     UsageConfig     `yaml:"usage"`
}

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Host string `yaml:"host" env:"BNA_HOST"`
	Port int    `yaml:"port" env:"BNA_PORT"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level" env:"BNA_LOG_LEVEL"`
}

// ProvidersConfig holds per-provider model overrides and feature toggles.
type ProvidersConfig struct {
	// DisableBedrock set to "1" downgrades Bedrock requests to Anthropic.
	DisableBedrock string `yaml:"disable_bedrock" env:"DISABLE_BEDROCK"`
	AnthropicModel string `yaml:"anthropic_model" env:"ANTHROPIC_MODEL"`
	OpenAIModel    string `yaml:"openai_model" env:"OPENAI_MODEL"`
	XAIModel       string `yaml:"xai_model" env:"XAI_MODEL"`
	GoogleModel    string `yaml:"google_model" env:"GOOGLE_MODEL"`
	BedrockModel   string `yaml:"bedrock_model" env:"AMAZON_BEDROCK_MODEL"`
}

// AWSConfig holds the Bedrock credentials configuration.
type AWSConfig struct {
	Region  string `yaml:"region" env:"AWS_REGION"`
	RoleARN string `yaml:"role_arn" env:"AWS_ROLE_ARN"`
}

// UsageConfig controls post-stream usage reporting.
type UsageConfig struct {
	// DisableReporting set to "1" skips usage reporting entirely.
	DisableReporting string `yaml:"disable_reporting" env:"DISABLE_USAGE_REPORTING"`
	ProvisionHost    string `yaml:"provision_host" env:"PROVISION_HOST"`
}

// Load reads configuration from an optional YAML file, then overlays
// environment variables. A missing file is not an error; env-only deployments
// are the common case.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	return nil
}

// BedrockDisabled reports whether Bedrock requests must be downgraded to
// Anthropic.
func (c *Config) BedrockDisabled() bool {
	return c.Providers.DisableBedrock == "1"
}

// UsageReportingDisabled reports whether post-stream usage reporting is off.
func (c *Config) UsageReportingDisabled() bool {
	return c.Usage.DisableReporting == "1"
}
