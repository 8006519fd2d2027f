// Package mapper takes periodic terrain measurements and keeps the sample
// set bounded by scheduling prune jobs.
package mapper

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/landsat-go/internal/core"
	"github.com/jengzang/landsat-go/internal/prune"
)

const (
	Name     = "mapper"
	Priority = 100
)

func init() {
	core.Register(Name, func(c *core.Core) core.Module { return New(c) })
}

// Mapper is the measuring module. Prune scheduling runs on every tick even
// when measuring is off, so samples ingested by other means are still pruned.
type Mapper struct {
	core      *core.Core
	enabled   atomic.Bool
	measuring atomic.Bool

	lastMeasurement time.Time
	lastPrune       time.Time
	sincePrune      int
	measurements    int64

	pruning atomic.Bool
	wg      sync.WaitGroup
}

func New(c *core.Core) *Mapper {
	m := &Mapper{core: c}
	m.enabled.Store(true)
	m.measuring.Store(true)
	return m
}

func (m *Mapper) Name() string  { return Name }
func (m *Mapper) Priority() int { return Priority }
func (m *Mapper) Enabled() bool { return m.enabled.Load() }

// Measuring reports whether the sampler is polled
func (m *Mapper) Measuring() bool { return m.measuring.Load() }

// SetMeasuring turns measuring on or off. It has no effect without a sampler.
func (m *Mapper) SetMeasuring(on bool) { m.measuring.Store(on && m.core.Sampler != nil) }

// PruneInProgress reports whether a prune job is running
func (m *Mapper) PruneInProgress() bool { return m.pruning.Load() }

// Measurements returns the number of measurements taken since start
func (m *Mapper) Measurements() int64 { return atomic.LoadInt64(&m.measurements) }

func (m *Mapper) OnStart(ctx context.Context) error {
	now := time.Now()
	m.lastMeasurement = now
	m.lastPrune = now
	if m.core.Sampler == nil {
		log.Printf("[Mapper] No sampler configured, measuring disabled")
		m.measuring.Store(false)
	}
	return nil
}

func (m *Mapper) OnFixedUpdate(ctx context.Context, now time.Time) {
	if m.measuring.Load() && now.Sub(m.lastMeasurement) >= m.core.Tuning.SampleInterval() {
		m.lastMeasurement = now
		m.measure(ctx)
	}

	if m.pruning.Load() {
		return
	}
	if now.Sub(m.lastPrune) >= m.core.Tuning.PruneInterval() ||
		m.sincePrune > m.core.Tuning.PruneAfterMeasurements {
		m.lastPrune = now
		m.sincePrune = 0
		m.startPrune(ctx)
	}
}

func (m *Mapper) measure(ctx context.Context) {
	readings, err := m.core.Sampler.Sample(ctx)
	if err != nil {
		log.Printf("[Mapper] Measurement failed: %v", err)
		return
	}
	if len(readings) == 0 {
		return
	}
	m.core.Store.WriteBatch(readings)
	m.sincePrune++
	atomic.AddInt64(&m.measurements, 1)
}

func (m *Mapper) startPrune(ctx context.Context) {
	p, err := prune.GetPruner(m.core.Tuning.PrunePolicy, m.core.Tuning)
	if err != nil {
		log.Printf("[Mapper] %v", err)
		return
	}
	m.pruning.Store(true)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.pruning.Store(false)
		if _, err := prune.Run(ctx, m.core.Store, p); err != nil {
			log.Printf("[Mapper] Prune failed: %v", err)
		}
	}()
}

// OnDestroy waits for a running prune job to finish
func (m *Mapper) OnDestroy(ctx context.Context) {
	m.enabled.Store(false)
	m.measuring.Store(false)
	m.wg.Wait()
}
