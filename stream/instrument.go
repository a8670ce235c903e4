package stream

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxkit/observability"
)

// Instrument records subscriptions, values, completions and lifetimes of
// p under name on m.
func Instrument[T any](p Publisher[T], name string, m *observability.StreamMetrics) Publisher[T] {
	return observe(p, func() *observability.StreamObservation {
		return observability.NewStreamObservation(name, m, nil)
	})
}

// Trace wraps every subscription of p in a span named after the stream.
// The span ends on completion or cancel and carries the value count; a
// failure marks it as an error.
func Trace[T any](p Publisher[T], tracer trace.Tracer, name string) Publisher[T] {
	return observe(p, func() *observability.StreamObservation {
		return observability.NewStreamObservation(name, nil, tracer)
	})
}

func observe[T any](p Publisher[T], open func() *observability.StreamObservation) Publisher[T] {
	return Deferred(func() Publisher[T] {
		o := open()
		return HandleEvents(p, Events[T]{
			OnSubscribe: func() { o.Start(context.Background()) },
			OnValue:     func(T) { o.Value() },
			OnCompletion: func(c Completion) {
				if c.Err != nil {
					o.End(observability.StatusFailed, c.Err)
					return
				}
				o.End(observability.StatusFinished, nil)
			},
			OnCancel: func() { o.End(observability.StatusCancelled, nil) },
		})
	})
}
