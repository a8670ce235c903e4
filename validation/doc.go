// Package validation provides configuration validation for rxkit.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report an INVALID_INPUT
// AppError whose details list every failing field.
//
// # Struct Tag Validation
//
//	type TelemetryConfig struct {
//	    Endpoint   string  `mapstructure:"endpoint" validate:"required_if=Enabled true"`
//	    SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("scheduler.tick", cfg.Tick)
//	err := v.Err()
package validation
