// Package prune bounds the growth of the sample set. A prune job works on a
// frozen copy of the store and installs its result with MergeAndThaw, so
// writers are never blocked and never lose samples.
package prune

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/metrics"
	"github.com/jengzang/landsat-go/internal/tuning"
)

// Pruner reduces the density of a snapshot. It must not modify snapshot and
// returns a new writable index.
type Pruner interface {
	Prune(ctx context.Context, snapshot *datastore.Index) (*datastore.Index, error)

	// Name returns the policy name the pruner was registered under
	Name() string
}

// PrunerFactory creates a pruner from the current tuning
type PrunerFactory func(t tuning.Tuning) Pruner

// PrunerRegistry maps policy names to pruner factories
var PrunerRegistry = make(map[string]PrunerFactory)

// RegisterPruner registers a pruner factory for a policy name
func RegisterPruner(policy string, factory PrunerFactory) {
	PrunerRegistry[policy] = factory
}

// GetPruner creates the pruner registered for policy
func GetPruner(policy string, t tuning.Tuning) (Pruner, error) {
	factory, ok := PrunerRegistry[policy]
	if !ok {
		return nil, fmt.Errorf("unknown prune policy %q (known: %v)", policy, Policies())
	}
	return factory(t), nil
}

// Policies returns the registered policy names
func Policies() []string {
	names := make([]string, 0, len(PrunerRegistry))
	for name := range PrunerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result describes one prune job
type Result struct {
	JobID    string        `json:"job_id"`
	Policy   string        `json:"policy"`
	Before   int           `json:"before"`
	After    int           `json:"after"`
	Duration time.Duration `json:"duration"`
}

// Run freezes store, prunes the snapshot and merges the result back. If the
// pruner fails the untouched snapshot is merged instead, so the store always
// returns to Live unless the freeze itself was refused.
func Run(ctx context.Context, store *datastore.Store, p Pruner) (Result, error) {
	res := Result{JobID: uuid.NewString(), Policy: p.Name()}
	start := time.Now()

	snapshot, err := store.FreezeAndCopy()
	if err != nil {
		return res, fmt.Errorf("failed to freeze store: %w", err)
	}
	res.Before = snapshot.CountAll()
	log.Printf("[Prune %s] Starting %s prune of %d samples", res.JobID, res.Policy, res.Before)

	pruned, err := p.Prune(ctx, snapshot)
	if err != nil {
		metrics.PruneFailTotal.WithLabelValues(res.Policy).Inc()
		if mergeErr := store.MergeAndThaw(snapshot); mergeErr != nil {
			return res, fmt.Errorf("prune error: %v, merge error: %w", err, mergeErr)
		}
		res.After = res.Before
		return res, fmt.Errorf("prune %s failed: %w", res.Policy, err)
	}

	// the store owns pruned once merged
	res.After = pruned.CountAll()
	if err := store.MergeAndThaw(pruned); err != nil {
		return res, fmt.Errorf("failed to merge pruned index: %w", err)
	}

	res.Duration = time.Since(start)
	metrics.PruneDurationMs.WithLabelValues(res.Policy).Observe(float64(res.Duration.Milliseconds()))
	if removed := res.Before - res.After; removed > 0 {
		metrics.PruneRemovedTotal.WithLabelValues(res.Policy).Add(float64(removed))
	}
	log.Printf("[Prune %s] Completed: %d -> %d samples in %v", res.JobID, res.Before, res.After, res.Duration)
	return res, nil
}

type nonePruner struct{}

func (nonePruner) Name() string { return "none" }

func (nonePruner) Prune(ctx context.Context, snapshot *datastore.Index) (*datastore.Index, error) {
	return snapshot.Mutable(), nil
}

func init() {
	RegisterPruner("none", func(tuning.Tuning) Pruner { return nonePruner{} })
}
