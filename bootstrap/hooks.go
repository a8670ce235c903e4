package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs during runtime startup or shutdown.
type Hook func(ctx context.Context) error

// OnStart registers a hook that runs when Start is called, before the
// summary is displayed.
func (r *Runtime) OnStart(hooks ...Hook) {
	r.onStart = append(r.onStart, hooks...)
}

// OnStop registers a hook that runs during shutdown before the telemetry
// providers are flushed. Use it to cancel long-lived subscriptions.
func (r *Runtime) OnStop(hooks ...Hook) {
	r.onStop = append(r.onStop, hooks...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
