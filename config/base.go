package config

import (
	"github.com/kbukum/rxkit/validation"
)

// Environments accepted by BaseConfig.Environment.
var Environments = []string{"development", "staging", "production"}

// BaseConfig contains the identity fields every runtime needs.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version" validate:"omitempty,semver"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	return validation.New().
		Required("base.name", c.Name).
		OneOf("base.environment", c.Environment, Environments).
		Err()
}
