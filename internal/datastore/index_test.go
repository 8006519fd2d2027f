package datastore

import (
	"errors"
	"math"
	"testing"
)

func TestInsertCountsDistinctKeys(t *testing.T) {
	idx := NewIndex()
	points := []struct{ lat, lon float64 }{
		{10, 20}, {10, 21}, {11, 20}, {-5.5, 179.9}, {10, 20}, {11, 20},
	}
	for _, p := range points {
		if _, err := idx.Insert("Kerbin", p.lat, p.lon, 1); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if got := idx.CountForBody("Kerbin"); got != 4 {
		t.Fatalf("CountForBody = %d, want 4", got)
	}
	if got := idx.CountAll(); got != 4 {
		t.Fatalf("CountAll = %d, want 4", got)
	}
}

func TestInsertDuplicateKeepsFirstElevation(t *testing.T) {
	idx := NewIndex()
	stored, _ := idx.Insert("Mun", 1, 2, 100)
	if !stored {
		t.Fatalf("first insert not stored")
	}
	stored, _ = idx.Insert("Mun", 1, 2, 999)
	if stored {
		t.Fatalf("duplicate insert reported as stored")
	}
	if got := idx.AverageElevation("Mun", 1, 1, 2, 2); got != 100 {
		t.Fatalf("elevation = %v, want 100", got)
	}
	if got := idx.CountForBody("Mun"); got != 1 {
		t.Fatalf("CountForBody = %d, want 1", got)
	}
}

func TestSameCoordinatesOnDifferentBodies(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 1, 2, 10)
	idx.Insert("Mun", 1, 2, 20)
	if idx.CountForBody("Kerbin") != 1 || idx.CountForBody("Mun") != 1 {
		t.Fatalf("bodies share keys: kerbin=%d mun=%d", idx.CountForBody("Kerbin"), idx.CountForBody("Mun"))
	}
}

func TestInsertDropsNonFinite(t *testing.T) {
	idx := NewIndex()
	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		stored, err := idx.Insert("Kerbin", v, 0, 0)
		if err != nil || stored {
			t.Fatalf("non-finite latitude: stored=%v err=%v", stored, err)
		}
		stored, err = idx.Insert("Kerbin", 0, 0, v)
		if err != nil || stored {
			t.Fatalf("non-finite elevation: stored=%v err=%v", stored, err)
		}
	}
	if idx.CountAll() != 0 {
		t.Fatalf("CountAll = %d, want 0", idx.CountAll())
	}
	if len(idx.BodiesKnown()) != 0 {
		t.Fatalf("BodiesKnown = %v, want none", idx.BodiesKnown())
	}
}

func TestUnknownBodyIsEmpty(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 0, 0, 1)
	if got := idx.CountForBody("Eeloo"); got != 0 {
		t.Fatalf("CountForBody(unknown) = %d", got)
	}
	if got := idx.AverageElevation("Eeloo", -90, 90, -180, 180); HasData(got) {
		t.Fatalf("AverageElevation(unknown) = %v, want NaN", got)
	}
	if got := idx.Samples("Eeloo", NewRect(-90, 90, -180, 180), 0); len(got) != 0 {
		t.Fatalf("Samples(unknown) = %v", got)
	}
}

func TestBodiesKnownSorted(t *testing.T) {
	idx := NewIndex()
	for _, b := range []string{"Mun", "Duna", "Kerbin", "Mun"} {
		idx.Insert(b, float64(len(b)), 0, 0)
	}
	got := idx.BodiesKnown()
	want := []string{"Duna", "Kerbin", "Mun"}
	if len(got) != len(want) {
		t.Fatalf("BodiesKnown = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BodiesKnown = %v, want %v", got, want)
		}
	}
}

func TestWriteCacheAgreesWithLookup(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 0, 0, 1)
	idx.Insert("Mun", 0, 0, 2)
	idx.Insert("Kerbin", 0, 1, 3)

	if idx.writeBody != "Kerbin" || idx.writeCache != idx.bodies["Kerbin"] {
		t.Fatalf("write cache does not point at the last written body")
	}
	// a read of another body must not move the write cache
	_ = idx.CountForBody("Mun")
	if idx.writeCache != idx.bodies["Kerbin"] {
		t.Fatalf("read evicted the write cache")
	}
	if c := idx.readCache.Load(); c == nil || c.data != idx.bodies["Mun"] {
		t.Fatalf("read cache not updated")
	}
}

func TestCopiesAreReadOnlyAndIndependent(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 10, 20, 100)
	idx.Insert("Mun", 1, 1, 5)

	all := idx.CopyAll()
	kerbin := idx.CopyForBody("Kerbin")

	idx.Insert("Kerbin", 10, 21, 300)
	idx.Insert("Kerbin", 11, 20, 300)

	if all.CountForBody("Kerbin") != 1 || kerbin.CountForBody("Kerbin") != 1 {
		t.Fatalf("copies observed later writes: all=%d kerbin=%d",
			all.CountForBody("Kerbin"), kerbin.CountForBody("Kerbin"))
	}
	if kerbin.CountForBody("Mun") != 0 {
		t.Fatalf("body copy contains other bodies")
	}
	if all.CountForBody("Mun") != 1 {
		t.Fatalf("full copy lost Mun")
	}

	for _, cp := range []*Index{all, kerbin} {
		if !cp.ReadOnly() {
			t.Fatalf("copy is writable")
		}
		stored, err := cp.Insert("Kerbin", 50, 50, 1)
		if !errors.Is(err, ErrReadOnly) || stored {
			t.Fatalf("Insert on copy: stored=%v err=%v, want ErrReadOnly", stored, err)
		}
	}
}

func TestMutableCopyDoesNotAliasSource(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 10, 20, 100)
	snapshot := idx.CopyAll()

	m := snapshot.Mutable()
	if m.ReadOnly() {
		t.Fatalf("Mutable returned a read-only index")
	}
	m.Insert("Kerbin", 10, 25, 1)
	m.Insert("Kerbin", 12, 20, 1)

	if snapshot.CountForBody("Kerbin") != 1 {
		t.Fatalf("snapshot changed after writes to its mutable copy")
	}
	if idx.CountForBody("Kerbin") != 1 {
		t.Fatalf("source changed after writes to a derived copy")
	}
	if m.CountForBody("Kerbin") != 3 {
		t.Fatalf("mutable copy count = %d, want 3", m.CountForBody("Kerbin"))
	}
}

func TestCopyForUnknownBodyIsEmpty(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Kerbin", 1, 1, 1)
	cp := idx.CopyForBody("Vall")
	if cp.CountAll() != 0 || len(cp.BodiesKnown()) != 0 {
		t.Fatalf("copy of unknown body not empty")
	}
}
