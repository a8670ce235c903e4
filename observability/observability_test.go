package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	rxerrors "github.com/kbukum/rxkit/errors"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected Environment 'development', got %q", cfg.Environment)
	}
}

func TestNewStreamMetrics_Noop(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewStreamMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordSubscribe(ctx, "orders")
	metrics.RecordValue(ctx, "orders")
	metrics.RecordError(ctx, "orders", "TIMEOUT")
	metrics.RecordEnd(ctx, "orders", StatusFailed, 100*time.Millisecond)
}

// collect reads all metrics from a manual reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

// sum adds up the int64 data points of a named sum instrument whose
// attributes contain every attribute in match.
func sum(rm metricdata.ResourceMetrics, name string, match ...attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				if hasAll(dp.Attributes, match) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, match []attribute.KeyValue) bool {
	for _, kv := range match {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func newTestMetrics(t *testing.T) (*StreamMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	return metrics, reader
}

func TestStreamMetrics_Records(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordSubscribe(ctx, "orders")
	metrics.RecordSubscribe(ctx, "orders")
	metrics.RecordValue(ctx, "orders")
	metrics.RecordValue(ctx, "orders")
	metrics.RecordValue(ctx, "orders")
	metrics.RecordEnd(ctx, "orders", StatusFinished, 10*time.Millisecond)

	rm := collect(t, reader)
	name := attribute.String(AttrStreamName, "orders")

	if got := sum(rm, "stream.subscriptions", name); got != 2 {
		t.Errorf("expected 2 subscriptions, got %d", got)
	}
	if got := sum(rm, "stream.values", name); got != 3 {
		t.Errorf("expected 3 values, got %d", got)
	}
	if got := sum(rm, "stream.active", name); got != 1 {
		t.Errorf("expected 1 active subscription, got %d", got)
	}
	if got := sum(rm, "stream.completions", name, attribute.String(AttrStatus, StatusFinished)); got != 1 {
		t.Errorf("expected 1 finished completion, got %d", got)
	}
}

func TestStreamObservation_Lifecycle(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	o := NewStreamObservation("ticks", metrics, tp.Tracer("test"))
	ctx := o.Start(context.Background())
	if StreamObservationFromContext(ctx) != o {
		t.Fatal("expected observation in returned context")
	}
	if !SpanFromContext(ctx).IsRecording() {
		t.Fatal("expected a recording span in returned context")
	}

	o.Value()
	o.Value()
	o.End(StatusFailed, rxerrors.Timeout("stream"))
	o.End(StatusFinished, nil)
	o.Value()

	if o.Values() != 2 {
		t.Errorf("expected 2 values, got %d", o.Values())
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != SpanStreamSubscription {
		t.Errorf("expected span %q, got %q", SpanStreamSubscription, span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}
	if len(span.Events()) != 1 {
		t.Errorf("expected the error recorded as 1 event, got %d", len(span.Events()))
	}
	attrs := attribute.NewSet(span.Attributes()...)
	if v, _ := attrs.Value(AttrErrorCode); v.AsString() != string(rxerrors.ErrCodeTimeout) {
		t.Errorf("expected error code TIMEOUT, got %q", v.AsString())
	}
	if v, _ := attrs.Value(AttrStreamValues); v.AsInt64() != 2 {
		t.Errorf("expected 2 values on span, got %d", v.AsInt64())
	}

	rm := collect(t, reader)
	name := attribute.String(AttrStreamName, "ticks")
	if got := sum(rm, "stream.completions", name, attribute.String(AttrStatus, StatusFailed)); got != 1 {
		t.Errorf("expected 1 failed completion, got %d", got)
	}
	if got := sum(rm, "stream.errors", name, attribute.String(AttrErrorCode, "TIMEOUT")); got != 1 {
		t.Errorf("expected 1 TIMEOUT error, got %d", got)
	}
	if got := sum(rm, "stream.active", name); got != 0 {
		t.Errorf("expected no active subscriptions, got %d", got)
	}
}

func TestStreamObservation_NilMetricsAndTracer(t *testing.T) {
	o := NewStreamObservation("quiet", nil, nil)
	ctx := o.Start(context.Background())
	o.Value()
	o.End(StatusCancelled, nil)

	if SpanFromContext(ctx).IsRecording() {
		t.Error("expected no recording span without a tracer")
	}
	if o.Values() != 1 {
		t.Errorf("expected 1 value, got %d", o.Values())
	}
}

func TestStreamObservation_UnknownErrorCode(t *testing.T) {
	if got := errorCode(errors.New("boom")); got != string(rxerrors.ErrCodeUpstreamFailure) {
		t.Errorf("expected UPSTREAM_FAILURE for plain errors, got %q", got)
	}
	if got := errorCode(rxerrors.DecodeFailure("int", errors.New("bad"))); got != "DECODE_FAILURE" {
		t.Errorf("expected DECODE_FAILURE, got %q", got)
	}
}

func TestStreamObservationFromContext_NotSet(t *testing.T) {
	if StreamObservationFromContext(context.Background()) != nil {
		t.Error("expected nil when observation not set")
	}
}

func TestNewServiceHealth(t *testing.T) {
	sh := NewServiceHealth("my-service", "1.0.0")

	if sh.Service != "my-service" {
		t.Errorf("expected Service 'my-service', got %s", sh.Service)
	}
	if sh.Version != "1.0.0" {
		t.Errorf("expected Version '1.0.0', got %s", sh.Version)
	}
	if sh.Status != HealthStatusUp {
		t.Errorf("expected Status 'up', got %s", sh.Status)
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("my-service", "1.0.0")

	sh.AddComponent(Health{Name: "scheduler", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected status 'up' after healthy component, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "telemetry", Status: HealthStatusDegraded, Message: "exporter disabled"})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected status 'degraded', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "queue", Status: HealthStatusDown, Message: "stopped"})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected status 'down', got %s", sh.Status)
	}

	if len(sh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(sh.Components))
	}
}

func TestServiceHealth_DegradedDoesNotOverrideDown(t *testing.T) {
	sh := NewServiceHealth("svc", "1.0.0")
	sh.AddComponent(Health{Name: "a", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})

	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
}

func TestTracer(t *testing.T) {
	tracer := Tracer("test-tracer")
	if tracer == nil {
		t.Fatal("expected non-nil tracer")
	}
}

func TestMeter(t *testing.T) {
	meter := Meter("test-meter")
	if meter == nil {
		t.Fatal("expected non-nil meter")
	}
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "test-attrs")

	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})

	// Unsupported type - ignored
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := len(spans[0].Attributes); got != 6 {
		t.Errorf("expected 6 attributes, got %d", got)
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
}

func TestSetSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "test-error")
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || len(spans[0].Events) != 1 {
		t.Fatalf("expected 1 span with 1 error event, got %+v", spans)
	}
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	SetSpanError(context.Background(), fmt.Errorf("no span error"))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := Sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("Sampler(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("svc", "2.0.0", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attrs := res.Set()
	if v, _ := attrs.Value(AttrServiceName); v.AsString() != "svc" {
		t.Errorf("expected service.name 'svc', got %q", v.AsString())
	}
	if v, _ := attrs.Value(AttrServiceVersion); v.AsString() != "2.0.0" {
		t.Errorf("expected service.version '2.0.0', got %q", v.AsString())
	}
}

func TestInitTracer(t *testing.T) {
	cfg := &TracerConfig{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     0.5,
	}

	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	tp, err := InitTracer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitMeter(t *testing.T) {
	cfg := &MeterConfig{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}

	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	mp, err := InitMeter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}

func TestServiceHealth_Check(t *testing.T) {
	up := HealthCheckFunc(func(context.Context) Health {
		return Health{Name: "scheduler", Status: HealthStatusUp}
	})
	degraded := HealthCheckFunc(func(context.Context) Health {
		return Health{Name: "telemetry", Status: HealthStatusDegraded}
	})

	sh := NewServiceHealth("svc", "1.0.0").Check(context.Background(), up, degraded)

	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected 'degraded', got %s", sh.Status)
	}
	if len(sh.Components) != 2 || sh.Components[0].Name != "scheduler" {
		t.Errorf("expected components in checker order, got %+v", sh.Components)
	}
}
