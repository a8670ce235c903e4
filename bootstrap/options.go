package bootstrap

import (
	"io"
	"time"

	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxkit/logger"
)

// Option configures the Runtime during creation.
type Option func(*runtimeOptions)

// runtimeOptions collects all option values before applying to Runtime.
type runtimeOptions struct {
	logger          *logger.Logger
	clock           clockz.Clock
	gracefulTimeout *time.Duration
	meterProvider   metric.MeterProvider
	tracerProvider  trace.TracerProvider
	output          io.Writer
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *runtimeOptions {
	o := &runtimeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the runtime.
// If not set, the global logger is initialized from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = l
	}
}

// WithClock drives the runtime scheduler from clock instead of the real
// clock. Tests pass a clockz fake clock.
func WithClock(clock clockz.Clock) Option {
	return func(o *runtimeOptions) {
		o.clock = clock
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *runtimeOptions) {
		o.gracefulTimeout = &d
	}
}

// WithMeterProvider records stream metrics on mp instead of an OTLP
// provider built from the telemetry config.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *runtimeOptions) {
		o.meterProvider = mp
	}
}

// WithTracerProvider starts stream spans on tp instead of an OTLP
// provider built from the telemetry config.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *runtimeOptions) {
		o.tracerProvider = tp
	}
}

// WithOutput sets where the startup summary is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *runtimeOptions) {
		o.output = w
	}
}
