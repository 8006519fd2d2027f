// Package telemetry publishes per-body sample counts.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/jengzang/landsat-go/internal/core"
	"github.com/jengzang/landsat-go/internal/metrics"
)

const (
	Name     = "telemetry"
	Priority = 200
)

func init() {
	core.Register(Name, func(c *core.Core) core.Module { return New(c) })
}

type Telemetry struct {
	core     *core.Core
	lastSent time.Time
	seen     map[string]bool
}

func New(c *core.Core) *Telemetry {
	return &Telemetry{core: c, seen: make(map[string]bool)}
}

func (t *Telemetry) Name() string  { return Name }
func (t *Telemetry) Priority() int { return Priority }
func (t *Telemetry) Enabled() bool { return true }

func (t *Telemetry) OnStart(ctx context.Context) error {
	t.Publish()
	t.lastSent = time.Now()
	return nil
}

func (t *Telemetry) OnFixedUpdate(ctx context.Context, now time.Time) {
	if now.Sub(t.lastSent) < t.core.Tuning.TelemetryInterval() {
		return
	}
	t.lastSent = now
	total := t.Publish()
	log.Printf("[Telemetry] %d samples across %d bodies (store %s, %d pending)",
		total, len(t.seen), t.core.Store.State(), t.core.Store.Pending())
}

func (t *Telemetry) OnDestroy(ctx context.Context) {}

// Publish sets the per-body gauge and returns the total sample count.
// Bodies that disappeared since the last call are reset to zero.
func (t *Telemetry) Publish() int {
	total := 0
	current := make(map[string]bool)
	for _, body := range t.core.Store.BodiesKnown() {
		n := t.core.Store.CountForBody(body)
		metrics.BodySamples.WithLabelValues(body).Set(float64(n))
		current[body] = true
		total += n
	}
	for body := range t.seen {
		if !current[body] {
			metrics.BodySamples.WithLabelValues(body).Set(0)
		}
	}
	t.seen = current
	return total
}
