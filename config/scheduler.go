package config

// Scheduler kinds.
const (
	// SchedulerQueue runs scheduled work serially on a worker goroutine.
	SchedulerQueue = "queue"
	// SchedulerImmediate runs scheduled work on the calling goroutine.
	SchedulerImmediate = "immediate"
)

// SchedulerConfig selects the default scheduler for timed operators.
type SchedulerConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind" validate:"omitempty,oneof=queue immediate"`
}

// ApplyDefaults applies default values to scheduler configuration.
func (c *SchedulerConfig) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = SchedulerQueue
	}
}
