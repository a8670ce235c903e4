package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rxkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Stream outcome values recorded in the status attribute.
const (
	StatusFinished  = "finished"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// StreamMetrics holds the instruments recorded for instrumented streams.
// Every measurement carries the stream name attribute.
type StreamMetrics struct {
	subscriptions metric.Int64Counter
	values        metric.Int64Counter
	completions   metric.Int64Counter
	active        metric.Int64UpDownCounter
	lifetime      metric.Float64Histogram
	errors        metric.Int64Counter
}

// NewStreamMetrics creates stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	subscriptions, err := meter.Int64Counter("stream.subscriptions",
		metric.WithDescription("Total number of subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions counter: %w", err)
	}

	values, err := meter.Int64Counter("stream.values",
		metric.WithDescription("Total number of values delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.values counter: %w", err)
	}

	completions, err := meter.Int64Counter("stream.completions",
		metric.WithDescription("Subscriptions ended, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.completions counter: %w", err)
	}

	active, err := meter.Int64UpDownCounter("stream.active",
		metric.WithDescription("Number of live subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.active gauge: %w", err)
	}

	lifetime, err := meter.Float64Histogram("stream.lifetime",
		metric.WithDescription("Time from subscription to completion or cancel in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.lifetime histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("stream.errors",
		metric.WithDescription("Failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.errors counter: %w", err)
	}

	return &StreamMetrics{
		subscriptions: subscriptions,
		values:        values,
		completions:   completions,
		active:        active,
		lifetime:      lifetime,
		errors:        errorTotal,
	}, nil
}

// RecordSubscribe counts a new subscription and marks it live.
func (m *StreamMetrics) RecordSubscribe(ctx context.Context, stream string) {
	attrs := metric.WithAttributes(attribute.String(AttrStreamName, stream))
	m.subscriptions.Add(ctx, 1, attrs)
	m.active.Add(ctx, 1, attrs)
}

// RecordValue counts one delivered value.
func (m *StreamMetrics) RecordValue(ctx context.Context, stream string) {
	m.values.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStreamName, stream)))
}

// RecordEnd marks a subscription as no longer live and records how it
// ended and how long it lived.
func (m *StreamMetrics) RecordEnd(ctx context.Context, stream, status string, lifetime time.Duration) {
	name := attribute.String(AttrStreamName, stream)
	m.active.Add(ctx, -1, metric.WithAttributes(name))
	m.completions.Add(ctx, 1, metric.WithAttributes(name, attribute.String(AttrStatus, status)))
	m.lifetime.Record(ctx, lifetime.Seconds(), metric.WithAttributes(name))
}

// RecordError records a failure by error code.
func (m *StreamMetrics) RecordError(ctx context.Context, stream, code string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStreamName, stream),
		attribute.String(AttrErrorCode, code),
	))
}
