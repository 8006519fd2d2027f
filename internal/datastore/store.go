package datastore

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jengzang/landsat-go/internal/metrics"
)

// State is the snapshot state of a Store
type State int

const (
	// Live stores writes directly in the index
	Live State = iota
	// Frozen queues writes until MergeAndThaw
	Frozen
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Frozen:
		return "frozen"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reading is one ingest tuple as produced by a sampler
type Reading struct {
	Body      string  `json:"body"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// Persister saves and restores the sample set. The serialization format is
// up to the implementation.
type Persister interface {
	Load(ctx context.Context) ([]Reading, error)
	Save(ctx context.Context, snapshot *Index) error
}

// Store wraps the live Index with the freeze/thaw protocol: one producer keeps
// writing while at most one consumer works on a frozen copy.
type Store struct {
	mu      sync.Mutex
	index   *Index
	state   State
	pending []Reading

	persister Persister
}

// NewStore creates an empty live store. persister may be nil, in which case
// LoadFromStorage and SaveToStorage do nothing.
func NewStore(persister Persister) *Store {
	return &Store{
		index:     NewIndex(),
		persister: persister,
	}
}

// Write ingests one sample. While live it goes straight into the index;
// while frozen it is queued and replayed by MergeAndThaw in arrival order.
func (s *Store) Write(body string, latitude, longitude, elevation float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(Reading{Body: body, Latitude: latitude, Longitude: longitude, Elevation: elevation})
}

// WriteBatch ingests readings in order under a single lock acquisition
func (s *Store) WriteBatch(readings []Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range readings {
		s.writeLocked(r)
	}
}

func (s *Store) writeLocked(r Reading) {
	if s.state == Frozen {
		s.pending = append(s.pending, r)
		metrics.SamplesBufferedTotal.Inc()
		return
	}
	s.insertLocked(r)
}

func (s *Store) insertLocked(r Reading) {
	// the installed index is always writable
	stored, _ := s.index.Insert(r.Body, r.Latitude, r.Longitude, r.Elevation)
	if stored {
		metrics.SamplesWrittenTotal.Inc()
	} else {
		metrics.SamplesDroppedTotal.Inc()
	}
}

// FreezeAndCopy returns a read-only copy of the current index and switches
// the store to Frozen. Only one snapshot may be outstanding.
func (s *Store) FreezeAndCopy() (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Frozen {
		return nil, ErrAlreadyFrozen
	}
	snapshot := s.index.CopyAll()
	s.state = Frozen
	metrics.FreezesTotal.Inc()
	return snapshot, nil
}

// MergeAndThaw installs merged as the store's index, replays the writes
// queued since FreezeAndCopy in arrival order, and switches back to Live.
//
// A writable merged index is owned by the store afterwards. A read-only one
// (for instance the untouched snapshot, to abandon a prune) is installed as a
// writable copy. On error the store stays Frozen.
func (s *Store) MergeAndThaw(merged *Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Frozen {
		return ErrNotFrozen
	}
	if merged == nil {
		return ErrNilIndex
	}
	if merged.ReadOnly() {
		merged = merged.Mutable()
	}

	s.index = merged
	for _, r := range s.pending {
		s.insertLocked(r)
	}
	metrics.SamplesReplayedTotal.Add(float64(len(s.pending)))
	s.pending = nil
	s.state = Live
	metrics.ThawsTotal.Inc()
	return nil
}

// State returns the current snapshot state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of writes queued while frozen
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// AverageElevation queries the live index; see Index.AverageElevation.
// Writes queued while frozen are not visible until the thaw.
func (s *Store) AverageElevation(body string, lat1, lat2, lon1, lon2 float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.AverageElevation(body, lat1, lat2, lon1, lon2)
}

// CountAll returns the number of samples in the live index
func (s *Store) CountAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.CountAll()
}

// CountForBody returns the number of body's samples in the live index
func (s *Store) CountForBody(body string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.CountForBody(body)
}

// BodiesKnown returns the bodies present in the live index
func (s *Store) BodiesKnown() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.BodiesKnown()
}

// CopyAll returns a read-only copy of the live index without freezing
func (s *Store) CopyAll() *Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.CopyAll()
}

// CopyForBody returns a read-only copy of one body's data without freezing
func (s *Store) CopyForBody(body string) *Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.CopyForBody(body)
}

// copyWithPending returns a read-only copy of the index with the pending
// writes applied
func (s *Store) copyWithPending() *Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return s.index.CopyAll()
	}
	merged := s.index.Mutable()
	for _, r := range s.pending {
		merged.Insert(r.Body, r.Latitude, r.Longitude, r.Elevation)
	}
	return merged.CopyAll()
}

// LoadFromStorage writes every persisted reading into the store
func (s *Store) LoadFromStorage(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	readings, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load samples: %w", err)
	}
	s.WriteBatch(readings)
	log.Printf("[Datastore] Loaded %d samples from storage", len(readings))
	return nil
}

// SaveToStorage persists a copy of the live index. While frozen, the writes
// queued since FreezeAndCopy are applied to the copy in arrival order, so the
// saved set matches what the store will hold after the thaw, before any prune.
// The copy is taken under the lock; the persister runs without holding it.
func (s *Store) SaveToStorage(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snapshot := s.copyWithPending()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save samples: %w", err)
	}
	log.Printf("[Datastore] Saved %d samples to storage", snapshot.CountAll())
	return nil
}
