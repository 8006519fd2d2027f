package datastore

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/jengzang/landsat-go/internal/spatial"
)

const btreeDegree = 32

// row holds every sample of one body sharing an exact latitude, ordered by longitude
type row struct {
	lat  float64
	cols *btree.BTreeG[spatial.Sample]
}

// bodyIndex holds the latitude rows of one body, ordered by latitude
type bodyIndex struct {
	rows  *btree.BTreeG[*row]
	count int
}

type cachedBody struct {
	name string
	data *bodyIndex
}

func lessLatitude(a, b *row) bool { return a.lat < b.lat }

func lessLongitude(a, b spatial.Sample) bool { return a.Longitude() < b.Longitude() }

func newBodyIndex() *bodyIndex {
	return &bodyIndex{rows: btree.NewG(btreeDegree, lessLatitude)}
}

// insert adds s unless a sample already exists at the same latitude and longitude
func (b *bodyIndex) insert(s spatial.Sample) bool {
	r, ok := b.rows.Get(&row{lat: s.Latitude()})
	if !ok {
		r = &row{lat: s.Latitude(), cols: btree.NewG(btreeDegree, lessLongitude)}
		b.rows.ReplaceOrInsert(r)
	}
	if r.cols.Has(s) {
		return false
	}
	r.cols.ReplaceOrInsert(s)
	b.count++
	return true
}

// clone copies the row structure and lazily clones each longitude tree.
// The source and the clone can be used concurrently once clone returns.
func (b *bodyIndex) clone() *bodyIndex {
	out := newBodyIndex()
	b.rows.Ascend(func(r *row) bool {
		out.rows.ReplaceOrInsert(&row{lat: r.lat, cols: r.cols.Clone()})
		return true
	})
	out.count = b.count
	return out
}

// Index is the three-level ordered sample index:
// body -> latitude -> longitude -> Sample.
//
// A writable Index is not safe for concurrent use; Store serializes access to
// its live index. A read-only Index (from CopyAll, CopyForBody or
// Store.FreezeAndCopy) can be read from any number of goroutines.
type Index struct {
	bodies   map[string]*bodyIndex
	readOnly bool

	// last body written; always agrees with bodies[writeBody]
	writeBody  string
	writeCache *bodyIndex

	readCache atomic.Pointer[cachedBody]

	cloneMu sync.Mutex
}

// NewIndex creates an empty writable index
func NewIndex() *Index {
	return newIndex(false)
}

func newIndex(readOnly bool) *Index {
	return &Index{
		bodies:   make(map[string]*bodyIndex),
		readOnly: readOnly,
	}
}

// ReadOnly reports whether mutations on the index are rejected
func (idx *Index) ReadOnly() bool {
	return idx.readOnly
}

// Insert stores a sample for body. It returns false without error when a
// sample already exists at exactly (latitude, longitude) for that body: the
// first write wins. Non-finite values are dropped the same way.
func (idx *Index) Insert(body string, latitude, longitude, elevation float64) (bool, error) {
	if idx.readOnly {
		return false, ErrReadOnly
	}
	s := spatial.NewSample(latitude, longitude, elevation)
	if !s.Finite() {
		return false, nil
	}
	return idx.bodyForWrite(body).insert(s), nil
}

func (idx *Index) bodyForWrite(body string) *bodyIndex {
	if idx.writeCache != nil && idx.writeBody == body {
		return idx.writeCache
	}
	b, ok := idx.bodies[body]
	if !ok {
		b = newBodyIndex()
		idx.bodies[body] = b
	}
	idx.writeBody = body
	idx.writeCache = b
	return b
}

// bodyForRead returns the body's rows or nil. The read cache is tracked
// separately from the write cache so reads never evict it.
func (idx *Index) bodyForRead(body string) *bodyIndex {
	if c := idx.readCache.Load(); c != nil && c.name == body {
		return c.data
	}
	b, ok := idx.bodies[body]
	if !ok {
		return nil
	}
	idx.readCache.Store(&cachedBody{name: body, data: b})
	return b
}

// CountAll returns the number of samples across all bodies
func (idx *Index) CountAll() int {
	total := 0
	for _, b := range idx.bodies {
		total += b.count
	}
	return total
}

// CountForBody returns the number of samples stored for body, 0 if unknown
func (idx *Index) CountForBody(body string) int {
	if b := idx.bodyForRead(body); b != nil {
		return b.count
	}
	return 0
}

// BodiesKnown returns the sorted names of bodies holding at least one sample
func (idx *Index) BodiesKnown() []string {
	names := make([]string, 0, len(idx.bodies))
	for name, b := range idx.bodies {
		if b.count > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CopyAll returns an independent read-only copy of every body's data
func (idx *Index) CopyAll() *Index {
	return idx.copyBodies(nil, true)
}

// CopyForBody returns an independent read-only copy holding only body's data.
// An unknown body yields an empty copy.
func (idx *Index) CopyForBody(body string) *Index {
	return idx.copyBodies(func(name string) bool { return name == body }, true)
}

// Mutable returns an independent writable copy of the index
func (idx *Index) Mutable() *Index {
	return idx.copyBodies(nil, false)
}

func (idx *Index) copyBodies(keep func(string) bool, readOnly bool) *Index {
	idx.cloneMu.Lock()
	defer idx.cloneMu.Unlock()

	out := newIndex(readOnly)
	for name, b := range idx.bodies {
		if keep != nil && !keep(name) {
			continue
		}
		out.bodies[name] = b.clone()
	}
	return out
}
