// Package observability provides OpenTelemetry tracing and metrics for
// streams and the runtime that hosts them.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &tracerCfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("rxkit"))
//	p = stream.Instrument(p, "orders", metrics)
//
// Each subscription of an instrumented stream is tracked by a
// StreamObservation, which records metrics and ends its span exactly once.
//
// Health Checks:
//
//	health := observability.NewServiceHealth("my-service", "1.0.0").Check(ctx, checkers...)
package observability
