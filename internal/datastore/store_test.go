package datastore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jengzang/landsat-go/internal/spatial"
)

func TestFreezeRejectsSecondFreeze(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.FreezeAndCopy(); err != nil {
		t.Fatalf("first freeze: %v", err)
	}
	if _, err := s.FreezeAndCopy(); !errors.Is(err, ErrAlreadyFrozen) {
		t.Fatalf("second freeze err = %v, want ErrAlreadyFrozen", err)
	}
}

func TestThawWithoutFreeze(t *testing.T) {
	s := NewStore(nil)
	if err := s.MergeAndThaw(NewIndex()); !errors.Is(err, ErrNotFrozen) {
		t.Fatalf("thaw err = %v, want ErrNotFrozen", err)
	}
}

func TestThawWithNilIndexStaysFrozen(t *testing.T) {
	s := NewStore(nil)
	if _, err := s.FreezeAndCopy(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if err := s.MergeAndThaw(nil); !errors.Is(err, ErrNilIndex) {
		t.Fatalf("thaw err = %v, want ErrNilIndex", err)
	}
	if s.State() != Frozen {
		t.Fatalf("state = %v, want frozen", s.State())
	}
}

func TestWritesBeforeFreezeAppearInCopy(t *testing.T) {
	s := NewStore(nil)
	s.Write("Kerbin", 10, 20, 100)
	s.Write("Kerbin", 12, 22, 300)

	snapshot, err := s.FreezeAndCopy()
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	s.Write("Kerbin", 50, 50, 7)

	if got := snapshot.CountForBody("Kerbin"); got != 2 {
		t.Fatalf("snapshot count = %d, want 2", got)
	}
	if got := snapshot.AverageElevation("Kerbin", 9, 13, 19, 23); got != 200 {
		t.Fatalf("snapshot average = %v, want 200", got)
	}
	if !snapshot.ReadOnly() {
		t.Fatalf("snapshot is writable")
	}
}

func TestFrozenWritesAreBufferedAndReplayed(t *testing.T) {
	s := NewStore(nil)
	s.Write("Kerbin", 1, 1, 10)

	snapshot, err := s.FreezeAndCopy()
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	s.Write("Kerbin", 2, 2, 20)
	s.Write("Mun", 3, 3, 30)

	if s.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", s.Pending())
	}
	if s.CountAll() != 1 {
		t.Fatalf("live index mutated while frozen: %d", s.CountAll())
	}
	if snapshot.CountAll() != 1 {
		t.Fatalf("snapshot saw frozen writes")
	}

	if err := s.MergeAndThaw(snapshot); err != nil {
		t.Fatalf("thaw: %v", err)
	}
	if s.State() != Live || s.Pending() != 0 {
		t.Fatalf("state = %v pending = %d after thaw", s.State(), s.Pending())
	}
	if s.CountForBody("Kerbin") != 2 || s.CountForBody("Mun") != 1 {
		t.Fatalf("counts after thaw: kerbin=%d mun=%d", s.CountForBody("Kerbin"), s.CountForBody("Mun"))
	}
	// the snapshot handed out stays untouched after being merged back
	if snapshot.CountAll() != 1 {
		t.Fatalf("merged snapshot mutated: %d", snapshot.CountAll())
	}
}

func TestReplayAppliesAfterMergedIndexInArrivalOrder(t *testing.T) {
	s := NewStore(nil)
	s.Write("Kerbin", 0, 0, 1)

	if _, err := s.FreezeAndCopy(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	// collides with a point the pruner puts in the merged index
	s.Write("Kerbin", 5, 5, 999)
	// two frozen writes to one key: the earlier one wins
	s.Write("Kerbin", 6, 6, 1)
	s.Write("Kerbin", 6, 6, 2)

	merged := NewIndex()
	merged.Insert("Kerbin", 5, 5, 50)

	if err := s.MergeAndThaw(merged); err != nil {
		t.Fatalf("thaw: %v", err)
	}
	if got := s.AverageElevation("Kerbin", 5, 5, 5, 5); got != 50 {
		t.Fatalf("merged value overwritten by replay: %v", got)
	}
	if got := s.AverageElevation("Kerbin", 6, 6, 6, 6); got != 1 {
		t.Fatalf("replay order broken: %v", got)
	}
	// (0,0) was dropped by the pruner and must stay dropped
	if got := s.CountForBody("Kerbin"); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestRoundTripWithUnmodifiedCopy(t *testing.T) {
	s := NewStore(nil)
	s.Write("Kerbin", 10, 20, 100)
	s.Write("Duna", -3, 40, 2500)

	snapshot, err := s.FreezeAndCopy()
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	s.Write("Duna", -3, 41, 2600)
	if err := s.MergeAndThaw(snapshot); err != nil {
		t.Fatalf("thaw: %v", err)
	}

	want := []Reading{
		{Body: "Duna", Latitude: -3, Longitude: 40, Elevation: 2500},
		{Body: "Duna", Latitude: -3, Longitude: 41, Elevation: 2600},
		{Body: "Kerbin", Latitude: 10, Longitude: 20, Elevation: 100},
	}
	got := s.CopyAll().Readings()
	if len(got) != len(want) {
		t.Fatalf("readings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("readings[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// the store is live and writable again
	s.Write("Kerbin", 1, 1, 1)
	if s.CountForBody("Kerbin") != 2 {
		t.Fatalf("write after thaw not applied")
	}
	if _, err := s.FreezeAndCopy(); err != nil {
		t.Fatalf("freeze after thaw: %v", err)
	}
}

func TestMergedWritableIndexIsInstalled(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 10; i++ {
		s.Write("Kerbin", float64(i), 0, 1)
	}
	snapshot, _ := s.FreezeAndCopy()

	pruned := NewIndex()
	snapshot.Range("Kerbin", NewRect(0, 4, 0, 0), func(sm spatial.Sample) bool {
		pruned.Insert("Kerbin", sm.Latitude(), sm.Longitude(), sm.Elevation())
		return true
	})
	if err := s.MergeAndThaw(pruned); err != nil {
		t.Fatalf("thaw: %v", err)
	}
	if got := s.CountForBody("Kerbin"); got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}
}

func TestConcurrentWritesDuringFreezeCycles(t *testing.T) {
	s := NewStore(nil)
	const writes = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			s.Write("Kerbin", float64(i), float64(i%360), float64(i))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			snapshot, err := s.FreezeAndCopy()
			if err != nil {
				t.Errorf("freeze: %v", err)
				return
			}
			_ = snapshot.AverageElevation("Kerbin", -90, 90, -180, 180)
			if err := s.MergeAndThaw(snapshot); err != nil {
				t.Errorf("thaw: %v", err)
				return
			}
		}
	}()

	wg.Wait()
	if got := s.CountForBody("Kerbin"); got != writes {
		t.Fatalf("count = %d, want %d (writes lost or duplicated)", got, writes)
	}
}

type memPersister struct {
	readings []Reading
	saved    *Index
	err      error
}

func (p *memPersister) Load(ctx context.Context) ([]Reading, error) {
	return p.readings, p.err
}

func (p *memPersister) Save(ctx context.Context, snapshot *Index) error {
	p.saved = snapshot
	return p.err
}

func TestStorageHooksWithoutPersisterAreNoops(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	if err := s.LoadFromStorage(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.SaveToStorage(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestStorageHooksUsePersister(t *testing.T) {
	p := &memPersister{readings: []Reading{
		{Body: "Kerbin", Latitude: 1, Longitude: 2, Elevation: 3},
		{Body: "Kerbin", Latitude: 1, Longitude: 2, Elevation: 4},
	}}
	s := NewStore(p)
	ctx := context.Background()

	if err := s.LoadFromStorage(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.CountAll() != 1 {
		t.Fatalf("count after load = %d, want 1", s.CountAll())
	}
	if err := s.SaveToStorage(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.saved == nil || !p.saved.ReadOnly() || p.saved.CountAll() != 1 {
		t.Fatalf("persister did not receive a read-only copy")
	}

	p.err = errors.New("disk full")
	if err := s.SaveToStorage(ctx); !errors.Is(err, p.err) {
		t.Fatalf("save err = %v, want wrapped disk full", err)
	}
}

func TestSaveWhileFrozenIncludesPendingWrites(t *testing.T) {
	p := &memPersister{}
	s := NewStore(p)
	s.Write("Kerbin", 1, 1, 10)

	snapshot, err := s.FreezeAndCopy()
	if err != nil {
		t.Fatalf("FreezeAndCopy: %v", err)
	}
	s.Write("Kerbin", 2, 2, 20)
	s.Write("Kerbin", 1, 1, 99) // collides with the stored sample, first write wins

	if err := s.SaveToStorage(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := p.saved.CountForBody("Kerbin"); got != 2 {
		t.Fatalf("saved %d samples, want 2", got)
	}
	if avg := p.saved.AverageElevation("Kerbin", 0, 3, 0, 3); avg != 15 {
		t.Fatalf("saved average = %v, want 15", avg)
	}
	if !p.saved.ReadOnly() {
		t.Fatalf("saved copy is writable")
	}

	// saving must not disturb the frozen state or the queue
	if s.State() != Frozen || s.Pending() != 2 {
		t.Fatalf("state = %v, pending = %d after save", s.State(), s.Pending())
	}
	if err := s.MergeAndThaw(snapshot); err != nil {
		t.Fatalf("MergeAndThaw: %v", err)
	}
	if s.CountAll() != 2 {
		t.Fatalf("count after thaw = %d, want 2", s.CountAll())
	}
}
