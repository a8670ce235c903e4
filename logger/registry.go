package logger

import (
	"sort"
	"sync"
)

// Component names used by the rxkit packages.
const (
	ComponentStream    = "stream"
	ComponentScheduler = "scheduler"
	ComponentBootstrap = "bootstrap"
)

// Components lists every component logger the runtime seeds.
var Components = []string{ComponentStream, ComponentScheduler, ComponentBootstrap}

var registry = &componentRegistry{
	loggers: make(map[string]*Logger),
}

type componentRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

// Register stores the logger used for a component, replacing any earlier one.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Get returns the logger registered for a component. Unregistered
// components get the global logger tagged with their name, so packages
// can log before a runtime has seeded the registry.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents derives one logger per name from base and registers
// it. A nil base uses the global logger.
func RegisterComponents(base *Logger, names ...string) {
	if base == nil {
		base = GetGlobalLogger()
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, name := range names {
		registry.loggers[name] = base.WithComponent(name)
	}
}

// Registered returns the registered component names in sorted order.
func Registered() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.loggers))
	for name := range registry.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
