package datastore

import (
	"math"
	"sort"

	"github.com/jengzang/landsat-go/internal/spatial"
)

// Rect is an inclusive latitude/longitude rectangle in degrees.
// It must not cross a pole or the ±180° longitude seam.
type Rect struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Everywhere matches every sample of a body
var Everywhere = Rect{
	MinLat: math.Inf(-1),
	MaxLat: math.Inf(1),
	MinLon: math.Inf(-1),
	MaxLon: math.Inf(1),
}

// NewRect builds a rectangle from two corners given in either order
func NewRect(lat1, lat2, lon1, lon2 float64) Rect {
	return Rect{
		MinLat: math.Min(lat1, lat2),
		MaxLat: math.Max(lat1, lat2),
		MinLon: math.Min(lon1, lon2),
		MaxLon: math.Max(lon1, lon2),
	}
}

// valid reports whether the rectangle can match anything
func (r Rect) valid() bool {
	return r.MinLat <= r.MaxLat && r.MinLon <= r.MaxLon
}

// Aggregate accumulates raw elevations over a rectangle
type Aggregate struct {
	Count int
	Sum   float64
}

// Average returns Sum/Count, or NaN when nothing matched
func (a Aggregate) Average() float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	return a.Sum / float64(a.Count)
}

// HasData reports whether v is a real average rather than the NaN "no data" sentinel
func HasData(v float64) bool {
	return !math.IsNaN(v)
}

// AverageElevation returns the mean raw elevation of body's samples inside
// the rectangle spanned by the two corners, in either order. The result is NaN
// when the body is unknown or no sample falls inside.
func (idx *Index) AverageElevation(body string, lat1, lat2, lon1, lon2 float64) float64 {
	return idx.Aggregate(body, NewRect(lat1, lat2, lon1, lon2)).Average()
}

// Aggregate sums the raw elevations of body's samples inside rect.
// Only the latitude band and, within each row, the longitude band are visited.
func (idx *Index) Aggregate(body string, rect Rect) Aggregate {
	var agg Aggregate
	idx.Range(body, rect, func(s spatial.Sample) bool {
		agg.Count++
		agg.Sum += s.Elevation()
		return true
	})
	return agg
}

// Range calls fn for each of body's samples inside rect, ascending by latitude
// then longitude, until fn returns false
func (idx *Index) Range(body string, rect Rect, fn func(spatial.Sample) bool) {
	if !rect.valid() {
		return
	}
	b := idx.bodyForRead(body)
	if b == nil {
		return
	}
	b.ascendRect(rect, fn)
}

func (b *bodyIndex) ascendRect(rect Rect, fn func(spatial.Sample) bool) {
	lonPivot := spatial.NewSample(0, rect.MinLon, 0)
	b.rows.AscendGreaterOrEqual(&row{lat: rect.MinLat}, func(r *row) bool {
		if r.lat > rect.MaxLat {
			return false
		}
		more := true
		r.cols.AscendGreaterOrEqual(lonPivot, func(s spatial.Sample) bool {
			if s.Longitude() > rect.MaxLon {
				return false
			}
			more = fn(s)
			return more
		})
		return more
	})
}

// Samples returns up to limit samples of body inside rect (limit <= 0 means no limit)
func (idx *Index) Samples(body string, rect Rect, limit int) []spatial.Sample {
	var out []spatial.Sample
	idx.Range(body, rect, func(s spatial.Sample) bool {
		out = append(out, s)
		return limit <= 0 || len(out) < limit
	})
	return out
}

// Walk visits every sample of every body, bodies by name and samples in
// index order, until fn returns false
func (idx *Index) Walk(fn func(body string, s spatial.Sample) bool) {
	names := make([]string, 0, len(idx.bodies))
	for name := range idx.bodies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		more := true
		idx.bodies[name].rows.Ascend(func(r *row) bool {
			r.cols.Ascend(func(s spatial.Sample) bool {
				more = fn(name, s)
				return more
			})
			return more
		})
		if !more {
			return
		}
	}
}

// Readings flattens the index into readings in Walk order
func (idx *Index) Readings() []Reading {
	out := make([]Reading, 0, idx.CountAll())
	idx.Walk(func(body string, s spatial.Sample) bool {
		out = append(out, Reading{
			Body:      body,
			Latitude:  s.Latitude(),
			Longitude: s.Longitude(),
			Elevation: s.Elevation(),
		})
		return true
	})
	return out
}
