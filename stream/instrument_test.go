package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	rxerrors "github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/observability"
)

func newTestMetrics(t *testing.T) (*observability.StreamMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewStreamMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// counter sums the data points of an int64 sum metric that carry attr.
func counter(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

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
				if v, ok := dp.Attributes.Value(attr.Key); ok && v.Emit() == attr.Value.Emit() {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestInstrument(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	p := Instrument(Sequence(1, 2, 3), "orders", metrics)

	record(p, Unlimited)
	record(p, Max(1))

	name := attribute.String(observability.AttrStreamName, "orders")
	assert.Equal(t, int64(2), counter(t, reader, "stream.subscriptions", name))
	assert.Equal(t, int64(4), counter(t, reader, "stream.values", name))
	assert.Equal(t, int64(1), counter(t, reader, "stream.completions", name))
	assert.Equal(t, int64(1), counter(t, reader, "stream.active", name))
}

func TestInstrumentFailureAndCancel(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	failing := Instrument(Fail[int](rxerrors.Timeout("fetch")), "fetch", metrics)
	record(failing, Unlimited)
	code := attribute.String(observability.AttrErrorCode, string(rxerrors.ErrCodeTimeout))
	assert.Equal(t, int64(1), counter(t, reader, "stream.errors", code))

	s := NewPassthroughSubject[int]()
	r := record(Instrument[int](s, "live", metrics), Unlimited)
	live := attribute.String(observability.AttrStreamName, "live")
	assert.Equal(t, int64(1), counter(t, reader, "stream.active", live))

	r.Cancel()
	assert.Equal(t, int64(0), counter(t, reader, "stream.active", live))
	cancelled := attribute.String(observability.AttrStatus, observability.StatusCancelled)
	assert.Equal(t, int64(1), counter(t, reader, "stream.completions", cancelled))
}

func newTestTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return spans, tp
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTrace(t *testing.T) {
	spans, tp := newTestTracer(t)
	record(Trace(Sequence("a", "b"), tp.Tracer("test"), "letters"), Unlimited)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, observability.SpanStreamSubscription, span.Name())

	v, ok := spanAttr(span, observability.AttrStreamName)
	require.True(t, ok)
	assert.Equal(t, "letters", v.AsString())

	v, ok = spanAttr(span, observability.AttrStreamValues)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	v, ok = spanAttr(span, observability.AttrStatus)
	require.True(t, ok)
	assert.Equal(t, observability.StatusFinished, v.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTraceFailure(t *testing.T) {
	spans, tp := newTestTracer(t)
	record(Trace(Concat(Just(1), Fail[int](rxerrors.Timeout("fetch"))), tp.Tracer("test"), "fetch"), Unlimited)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	v, ok := spanAttr(ended[0], observability.AttrErrorCode)
	require.True(t, ok)
	assert.Equal(t, string(rxerrors.ErrCodeTimeout), v.AsString())
}

func TestTraceCancel(t *testing.T) {
	spans, tp := newTestTracer(t)
	s := NewPassthroughSubject[int]()
	r := record(Trace[int](s, tp.Tracer("test"), "live"), Unlimited)
	assert.Empty(t, spans.Ended())

	r.Cancel()
	ended := spans.Ended()
	require.Len(t, ended, 1)
	v, ok := spanAttr(ended[0], observability.AttrStatus)
	require.True(t, ok)
	assert.Equal(t, observability.StatusCancelled, v.AsString())
}
