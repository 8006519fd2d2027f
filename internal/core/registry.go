package core

import (
	"context"
	"sort"
	"time"
)

// Module is a unit of behaviour driven by Core's tick loop
type Module interface {
	// Name returns the name the module was registered under
	Name() string

	// Priority orders modules; lower runs first
	Priority() int

	OnStart(ctx context.Context) error
	OnFixedUpdate(ctx context.Context, now time.Time)
	OnDestroy(ctx context.Context)

	// Enabled reports whether OnFixedUpdate should run this tick
	Enabled() bool
}

// ModuleFactory creates a module bound to a core
type ModuleFactory func(c *Core) Module

// ModuleRegistry maps module names to factories
var ModuleRegistry = make(map[string]ModuleFactory)

// Register registers a module factory. Packages call it from init().
func Register(name string, factory ModuleFactory) {
	ModuleRegistry[name] = factory
}

// Registered returns the registered module names
func Registered() []string {
	names := make([]string, 0, len(ModuleRegistry))
	for name := range ModuleRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
