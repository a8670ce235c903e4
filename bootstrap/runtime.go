package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kbukum/rxkit/config"
	rxerrors "github.com/kbukum/rxkit/errors"
	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/observability"
	"github.com/kbukum/rxkit/scheduler"
)

const instrumentationName = "github.com/kbukum/rxkit/stream"

// Runtime wires the ambient services stream pipelines run on: logging,
// a default scheduler and stream telemetry.
//
//	rt, err := bootstrap.New(ctx, cfg)
//	defer rt.Shutdown(context.Background())
//	ticks := stream.Interval(rt.Scheduler, time.Second)
//	events := stream.Instrument(source, "events", rt.Metrics)
type Runtime struct {
	Name      string
	Version   string
	Config    *config.Config
	Logger    *logger.Logger
	Scheduler scheduler.Scheduler
	Metrics   *observability.StreamMetrics
	Tracer    trace.Tracer
	Summary   *Summary

	clock           clockz.Clock
	output          io.Writer
	gracefulTimeout time.Duration
	meterProvider   *sdkmetric.MeterProvider
	tracerProvider  *sdktrace.TracerProvider
	checkers        []observability.HealthChecker

	onStart []Hook
	onStop  []Hook

	stopOnce sync.Once
	stopErr  error
}

// New creates a Runtime from cfg. It applies defaults, validates the
// config, initializes the logger, builds the scheduler and, when telemetry
// is enabled, the OTLP meter and tracer providers.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, rxerrors.Validation("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	r := &Runtime{
		Name:            cfg.Base.Name,
		Version:         cfg.Base.Version,
		Config:          cfg,
		clock:           clockz.RealClock,
		output:          os.Stdout,
		gracefulTimeout: 15 * time.Second,
	}
	if o.clock != nil {
		r.clock = o.clock
	}
	if o.output != nil {
		r.output = o.output
	}
	if o.gracefulTimeout != nil {
		r.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		r.Logger = o.logger
	} else {
		logger.Init(&cfg.Logging)
		r.Logger = logger.GetGlobalLogger()
	}
	logger.RegisterComponents(r.Logger, logger.Components...)
	r.Logger = logger.Get(logger.ComponentBootstrap)

	r.Scheduler = newScheduler(cfg.Scheduler.Kind, r.clock)

	if err := r.initTelemetry(ctx, o); err != nil {
		return nil, err
	}

	r.Summary = NewSummary(r.Name, r.Version)
	r.Summary.TrackSetting("environment", cfg.Base.Environment)
	r.Summary.TrackSetting("scheduler", cfg.Scheduler.Kind)
	r.Summary.TrackSetting("log level", cfg.Logging.Level)
	r.Summary.TrackSetting("loggers", strings.Join(logger.Registered(), ", "))
	if cfg.Telemetry.Enabled {
		r.Summary.TrackSetting("telemetry", cfg.Telemetry.Endpoint)
	} else {
		r.Summary.TrackSetting("telemetry", "disabled")
	}
	return r, nil
}

func newScheduler(kind string, clock clockz.Clock) scheduler.Scheduler {
	if kind == config.SchedulerImmediate {
		return scheduler.NewImmediate(clock)
	}
	return scheduler.New(clock)
}

// initTelemetry resolves the meter and tracer. Injected providers win over
// the config. Without either, stream metrics and spans go to no-op
// providers so operators never see a nil Metrics or Tracer.
func (r *Runtime) initTelemetry(ctx context.Context, o *runtimeOptions) error {
	tel := &r.Config.Telemetry

	var mp metric.MeterProvider = metricnoop.NewMeterProvider()
	var tp trace.TracerProvider = tracenoop.NewTracerProvider()

	if tel.Enabled && o.tracerProvider == nil {
		provider, err := observability.InitTracer(ctx, tel.TracerConfig(&r.Config.Base))
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		r.tracerProvider = provider
		tp = provider
	}
	if tel.Enabled && o.meterProvider == nil {
		provider, err := observability.InitMeter(ctx, tel.MeterConfig(&r.Config.Base))
		if err != nil {
			r.shutdownTelemetry(ctx)
			return fmt.Errorf("init meter: %w", err)
		}
		r.meterProvider = provider
		mp = provider
	}
	if o.tracerProvider != nil {
		tp = o.tracerProvider
	}
	if o.meterProvider != nil {
		mp = o.meterProvider
	}

	metrics, err := observability.NewStreamMetrics(mp.Meter(instrumentationName))
	if err != nil {
		r.shutdownTelemetry(ctx)
		return fmt.Errorf("stream metrics: %w", err)
	}
	r.Metrics = metrics
	r.Tracer = tp.Tracer(instrumentationName)
	return nil
}

// AddHealthCheck registers checkers that Health runs after the built-in ones.
func (r *Runtime) AddHealthCheck(checkers ...observability.HealthChecker) {
	r.checkers = append(r.checkers, checkers...)
}

// Health reports the scheduler, the telemetry export and every registered
// checker.
func (r *Runtime) Health(ctx context.Context) *observability.ServiceHealth {
	checkers := append([]observability.HealthChecker{
		observability.HealthCheckFunc(r.schedulerHealth),
		observability.HealthCheckFunc(r.telemetryHealth),
	}, r.checkers...)
	return observability.NewServiceHealth(r.Name, r.Version).Check(ctx, checkers...)
}

// schedulerHealth schedules a no-op and waits for it to run.
func (r *Runtime) schedulerHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    "scheduler",
		Details: map[string]string{"kind": r.Config.Scheduler.Kind},
	}
	ran := make(chan struct{})
	r.Scheduler.Schedule(func() { close(ran) })
	select {
	case <-ran:
		h.Status = observability.HealthStatusUp
	case <-ctx.Done():
		h.Status = observability.HealthStatusDown
		h.Message = "scheduled action did not run"
	}
	return h
}

func (r *Runtime) telemetryHealth(context.Context) observability.Health {
	h := observability.Health{Name: "telemetry", Status: observability.HealthStatusUp}
	if !r.Config.Telemetry.Enabled {
		h.Message = "disabled"
		return h
	}
	h.Details = map[string]string{"endpoint": r.Config.Telemetry.Endpoint}
	return h
}

// Start runs the OnStart hooks and displays the startup summary.
func (r *Runtime) Start(ctx context.Context) error {
	start := r.clock.Now()

	r.Logger.Info("Starting runtime", logger.Fields(
		"name", r.Name,
		"version", r.Version,
	))

	if err := runHooks(ctx, r.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	elapsed := r.clock.Since(start)
	r.Logger.Info("Runtime started", logger.DurationFields("start", elapsed))
	r.Summary.SetStartupDuration(elapsed)
	r.Summary.DisplaySummary(r.output, r.Health(ctx))
	return nil
}

// Run starts the runtime, executes task and shuts down when the task
// returns. SIGINT and SIGTERM cancel the task's context.
//
//	rt.Run(ctx, func(ctx context.Context) error {
//	    _, err := stream.ToSlice(ctx, pipeline)
//	    return err
//	})
func (r *Runtime) Run(ctx context.Context, task func(ctx context.Context) error) error {
	if err := r.Start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			r.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := r.Shutdown(context.WithoutCancel(ctx)); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (r *Runtime) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		r.Logger.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		r.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the OnStop hooks and flushes the telemetry providers
// within the graceful timeout. Calls after the first return its result.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.stopErr = r.stop(ctx)
	})
	return r.stopErr
}

func (r *Runtime) stop(ctx context.Context) error {
	begin := r.clock.Now()
	r.Logger.Info("Shutting down runtime", logger.Fields("timeout", r.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(ctx, r.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, r.onStop); err != nil {
		r.Logger.Error("OnStop hook error", logger.MergeWithError(logger.Fields(logger.FieldOperation, "stop"), err))
		errs = append(errs, err)
	}
	if err := r.shutdownTelemetry(ctx); err != nil {
		r.Logger.Error("Telemetry shutdown error", logger.ErrorFields("telemetry shutdown", err))
		errs = append(errs, err)
	}

	r.Logger.Info("Runtime shutdown complete", logger.DurationFields("shutdown", r.clock.Since(begin)))
	return errors.Join(errs...)
}

// shutdownTelemetry flushes the providers New created, bounded by the
// telemetry shutdown timeout.
func (r *Runtime) shutdownTelemetry(ctx context.Context) error {
	if r.tracerProvider == nil && r.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.Config.Telemetry.ShutdownTimeout)
	defer cancel()

	var errs []error
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
		r.tracerProvider = nil
	}
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
		r.meterProvider = nil
	}
	return errors.Join(errs...)
}
