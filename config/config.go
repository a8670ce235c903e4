package config

import (
	"errors"

	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/validation"
)

// Config is the full runtime configuration.
//
//	base:
//	  name: ingest
//	  environment: production
//	logging:
//	  level: info
//	  format: json
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	scheduler:
//	  kind: queue
type Config struct {
	Base      BaseConfig      `yaml:"base" mapstructure:"base"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	c.Base.ApplyDefaults()
	// The logger tags its output with the service name.
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Base.Name
	}
	if c.Base.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Scheduler.ApplyDefaults()
}

// Validate runs the struct tag checks, then the per-section checks.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return errors.Join(c.Base.Validate(), c.Telemetry.Validate())
}
