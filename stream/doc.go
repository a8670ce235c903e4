// Package stream implements demand-driven publishers, subscribers and the
// operators that connect them.
//
// A Publisher emits values to a Subscriber only as far as the subscriber's
// Demand reaches, followed by at most one Completion. Operators such as Map,
// Filter, FlatMap and Debounce are functions that wrap a publisher:
//
//	orders := stream.Decode[Order](payloads, stream.JSONDecoder{})
//	batches := stream.CollectByTime(orders, time.Second, rt.Scheduler)
//	err := stream.ForEach(ctx, batches, store)
//
// Signals toward one subscriber are always serialized. Timed operators take a
// scheduler.Scheduler, so tests can drive them with a fake clock. Protocol
// violations, such as a value delivered without demand, panic with an
// errors.ErrCodeProtocolViolation error and are logged through the "stream"
// logger.
package stream
