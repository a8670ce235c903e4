package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rxerrors "github.com/kbukum/rxkit/errors"
)

// StreamObservation tracks one subscription of an observed stream.
// If Metrics is nil, metric recording is silently skipped; if Tracer is
// nil, no span is started.
type StreamObservation struct {
	Stream    string
	StartTime time.Time
	Metrics   *StreamMetrics
	Tracer    trace.Tracer

	mu     sync.Mutex
	ctx    context.Context
	span   trace.Span
	values int64
	ended  bool
}

// NewStreamObservation creates an observation for a named stream.
func NewStreamObservation(stream string, metrics *StreamMetrics, tracer trace.Tracer) *StreamObservation {
	return &StreamObservation{
		Stream:  stream,
		Metrics: metrics,
		Tracer:  tracer,
	}
}

// observationContextKey is the context key for StreamObservation.
type observationContextKey struct{}

// StreamObservationFromContext retrieves the observation started on ctx, or nil.
func StreamObservationFromContext(ctx context.Context) *StreamObservation {
	if o, ok := ctx.Value(observationContextKey{}).(*StreamObservation); ok {
		return o
	}
	return nil
}

// Start marks the subscription live, starting its span when a tracer is set.
// The returned context carries the span and the observation.
func (o *StreamObservation) Start(ctx context.Context) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.StartTime = time.Now()
	if o.Tracer != nil {
		ctx, o.span = o.Tracer.Start(ctx, SpanStreamSubscription,
			trace.WithAttributes(attribute.String(AttrStreamName, o.Stream)),
		)
	}
	ctx = context.WithValue(ctx, observationContextKey{}, o)
	o.ctx = ctx
	if o.Metrics != nil {
		o.Metrics.RecordSubscribe(ctx, o.Stream)
	}
	return ctx
}

// Value records one delivered value.
func (o *StreamObservation) Value() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ended {
		return
	}
	o.values++
	if o.Metrics != nil {
		o.Metrics.RecordValue(o.context(), o.Stream)
	}
}

// End closes the observation with one of the Status values. Only the first
// call has an effect.
func (o *StreamObservation) End(status string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ended {
		return
	}
	o.ended = true
	ctx := o.context()
	duration := time.Since(o.StartTime)

	if o.span != nil {
		spanCtx := trace.ContextWithSpan(ctx, o.span)
		if err != nil {
			SetSpanError(spanCtx, err)
			o.span.SetStatus(codes.Error, err.Error())
			SetSpanAttribute(spanCtx, AttrErrorCode, errorCode(err))
			SetSpanAttribute(spanCtx, AttrErrorMessage, err.Error())
		}
		SetSpanAttribute(spanCtx, AttrStatus, status)
		SetSpanAttribute(spanCtx, AttrStreamValues, o.values)
		SetSpanAttribute(spanCtx, AttrDurationMs, duration.Milliseconds())
		o.span.End()
	}

	if o.Metrics != nil {
		if err != nil {
			o.Metrics.RecordError(ctx, o.Stream, errorCode(err))
		}
		o.Metrics.RecordEnd(ctx, o.Stream, status, duration)
	}
}

// Values returns the number of values recorded so far.
func (o *StreamObservation) Values() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.values
}

// Duration returns the elapsed time since Start.
func (o *StreamObservation) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return time.Since(o.StartTime)
}

func (o *StreamObservation) context() context.Context {
	if o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

func errorCode(err error) string {
	if appErr, ok := rxerrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(rxerrors.ErrCodeUpstreamFailure)
}
