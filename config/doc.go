// Package config loads and validates rxkit runtime configuration.
//
// Values come from a YAML file, an optional .env file and the process
// environment, in increasing precedence. Every mapstructure key can be
// overridden by its upper-cased, underscore-joined environment variable:
//
//	cfg, err := config.Load("ingest", config.WithEnvPrefix("RX"))
//	// RX_TELEMETRY_ENDPOINT overrides telemetry.endpoint
//
// Load applies defaults and then validates the result with struct tags
// and per-section checks.
package config
