// Package core owns the sample store and drives the registered modules from
// a fixed-interval tick.
package core

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/tuning"
)

// Sampler takes one measurement of the terrain below the vessel. An empty
// result means nothing could be measured this time.
type Sampler interface {
	Sample(ctx context.Context) ([]datastore.Reading, error)
}

// SamplerFunc adapts a function to Sampler
type SamplerFunc func(ctx context.Context) ([]datastore.Reading, error)

func (f SamplerFunc) Sample(ctx context.Context) ([]datastore.Reading, error) {
	return f(ctx)
}

// Core holds the shared state modules work on
type Core struct {
	Store   *datastore.Store
	Tuning  tuning.Tuning
	Sampler Sampler

	blacklist map[string]bool

	mu       sync.Mutex
	modules  []Module
	lastSave time.Time
}

// New creates a core. Modules named in blacklist (case-insensitive) are not loaded.
func New(store *datastore.Store, t tuning.Tuning, sampler Sampler, blacklist []string) *Core {
	bl := make(map[string]bool, len(blacklist))
	for _, name := range blacklist {
		bl[strings.ToLower(name)] = true
	}
	return &Core{
		Store:     store,
		Tuning:    t,
		Sampler:   sampler,
		blacklist: bl,
	}
}

// LoadModules instantiates every registered module that is not blacklisted
func (c *Core) LoadModules() {
	var modules []Module
	for _, name := range Registered() {
		if c.blacklist[strings.ToLower(name)] {
			log.Printf("[Core] Module %s is blacklisted, skipping", name)
			continue
		}
		modules = append(modules, ModuleRegistry[name](c))
	}
	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	c.mu.Lock()
	c.modules = modules
	c.mu.Unlock()
	log.Printf("[Core] Loaded %d modules", len(modules))
}

// Modules returns the loaded modules in run order
func (c *Core) Modules() []Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Module(nil), c.modules...)
}

// Module looks up a loaded module by name, ignoring case
func (c *Core) Module(name string) Module {
	for _, m := range c.Modules() {
		if strings.EqualFold(m.Name(), name) {
			return m
		}
	}
	return nil
}

// Start restores persisted samples and starts every module
func (c *Core) Start(ctx context.Context) error {
	if err := c.Store.LoadFromStorage(ctx); err != nil {
		return err
	}
	for _, m := range c.Modules() {
		if err := m.OnStart(ctx); err != nil {
			return fmt.Errorf("failed to start module %s: %w", m.Name(), err)
		}
	}
	c.mu.Lock()
	c.lastSave = time.Now()
	c.mu.Unlock()
	return nil
}

// FixedUpdate runs one tick: the periodic save, then every enabled module
func (c *Core) FixedUpdate(ctx context.Context, now time.Time) {
	c.mu.Lock()
	due := now.Sub(c.lastSave) >= c.Tuning.SettingsSaveInterval()
	if due {
		c.lastSave = now
	}
	c.mu.Unlock()

	if due {
		if err := c.Store.SaveToStorage(ctx); err != nil {
			log.Printf("[Core] Periodic save failed: %v", err)
		}
	}

	for _, m := range c.Modules() {
		if m.Enabled() {
			m.OnFixedUpdate(ctx, now)
		}
	}
}

// DefaultTick is used by Run when given a non-positive tick
const DefaultTick = 20 * time.Millisecond

// Run calls FixedUpdate every tick until ctx is done
func (c *Core) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		log.Printf("[Core] Invalid tick %v, using %v", tick, DefaultTick)
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.FixedUpdate(ctx, now)
		}
	}
}

// Stop destroys modules in reverse order, then saves the store. Destroying
// first lets a running prune job merge and replay its queued writes.
func (c *Core) Stop(ctx context.Context) {
	modules := c.Modules()
	for i := len(modules) - 1; i >= 0; i-- {
		modules[i].OnDestroy(ctx)
	}
	if err := c.Store.SaveToStorage(ctx); err != nil {
		log.Printf("[Core] Final save failed: %v", err)
	}
}
