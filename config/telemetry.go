package config

import (
	"time"

	"github.com/kbukum/rxkit/observability"
	"github.com/kbukum/rxkit/validation"
)

// TelemetryConfig configures OTLP export of stream metrics and spans.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio. Zero means 1.
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval  time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults applies default values to telemetry configuration.
func (c *TelemetryConfig) ApplyDefaults() {
	tracer := observability.DefaultTracerConfig("")
	meter := observability.DefaultMeterConfig("")
	if c.Endpoint == "" {
		c.Endpoint = tracer.Endpoint
	}
	if c.SampleRate == 0 {
		c.SampleRate = tracer.SampleRate
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = meter.Interval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks the settings that only matter once export is enabled.
func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.New().
		Required("telemetry.endpoint", c.Endpoint).
		Between("telemetry.sample_rate", c.SampleRate, 0, 1).
		Positive("telemetry.metric_interval", c.MetricInterval).
		Positive("telemetry.shutdown_timeout", c.ShutdownTimeout).
		Err()
}

// TracerConfig maps the telemetry settings onto a tracer provider config.
// Identity fields missing from base keep the tracer defaults.
func (c *TelemetryConfig) TracerConfig(base *BaseConfig) *observability.TracerConfig {
	cfg := observability.DefaultTracerConfig(base.Name)
	if base.Version != "" {
		cfg.ServiceVersion = base.Version
	}
	if base.Environment != "" {
		cfg.Environment = base.Environment
	}
	cfg.Endpoint = c.Endpoint
	cfg.Insecure = c.Insecure
	cfg.SampleRate = c.SampleRate
	return &cfg
}

// MeterConfig maps the telemetry settings onto a meter provider config.
func (c *TelemetryConfig) MeterConfig(base *BaseConfig) *observability.MeterConfig {
	cfg := observability.DefaultMeterConfig(base.Name)
	if base.Version != "" {
		cfg.ServiceVersion = base.Version
	}
	if base.Environment != "" {
		cfg.Environment = base.Environment
	}
	cfg.Endpoint = c.Endpoint
	cfg.Insecure = c.Insecure
	cfg.Interval = c.MetricInterval
	return &cfg
}
