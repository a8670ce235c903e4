// Package bootstrap assembles the runtime that rxkit pipelines run on.
//
// New takes a loaded config.Config and wires the logger, the default
// scheduler and the stream metrics and tracer. Telemetry goes to OTLP when
// enabled and to no-op providers otherwise.
//
//	cfg, err := config.Load("ingest")
//	if err != nil {
//	    return err
//	}
//	rt, err := bootstrap.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	return rt.Run(ctx, func(ctx context.Context) error {
//	    return consume(ctx, rt)
//	})
//
// Run displays a startup summary, cancels the task on SIGINT or SIGTERM
// and shuts the runtime down when the task returns.
package bootstrap
