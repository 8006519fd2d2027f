package prune

import (
	"context"
	"math"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/spatial"
	"github.com/jengzang/landsat-go/internal/tuning"
)

const ctxCheckEvery = 1024

// proximityPruner merges near-duplicate neighbours: a sample closer than
// minDistance to a sample already kept is dropped.
type proximityPruner struct {
	minDistance   float64
	defaultRadius float64
}

// NewProximityPruner creates the proximity merge policy. Distances are in
// meters; bodies without a known radius use defaultRadius.
func NewProximityPruner(minDistance, defaultRadius float64) Pruner {
	return &proximityPruner{minDistance: minDistance, defaultRadius: defaultRadius}
}

func (p *proximityPruner) Name() string { return "proximity" }

func (p *proximityPruner) Prune(ctx context.Context, snapshot *datastore.Index) (*datastore.Index, error) {
	out := datastore.NewIndex()
	for _, body := range snapshot.BodiesKnown() {
		radius, ok := spatial.BodyRadius(body)
		if !ok {
			radius = p.defaultRadius
		}
		minAngle := p.minDistance / radius
		latWindow := minAngle * spatial.DegreesPerRadian

		var err error
		visited := 0
		snapshot.Range(body, datastore.Everywhere, func(s spatial.Sample) bool {
			visited++
			if visited%ctxCheckEvery == 0 {
				if err = ctx.Err(); err != nil {
					return false
				}
			}
			if p.hasNeighbour(out, body, s, minAngle, latWindow) {
				return true
			}
			_, err = out.Insert(body, s.Latitude(), s.Longitude(), s.Elevation())
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// hasNeighbour searches the kept samples in a window around s.
// Windows never wrap across the ±180° seam.
func (p *proximityPruner) hasNeighbour(kept *datastore.Index, body string, s spatial.Sample, minAngle, latWindow float64) bool {
	if minAngle <= 0 {
		return false
	}
	// hav(d) >= cos²(φmax)·hav(Δλ) bounds the longitude spread of any neighbour
	lonWindow := 360.0
	if maxLat := math.Abs(s.Latitude()) + latWindow; maxLat < 90 {
		x := math.Sin(minAngle/2) / math.Cos(maxLat/spatial.DegreesPerRadian)
		if x < 1 {
			lonWindow = 2 * math.Asin(x) * spatial.DegreesPerRadian
		}
	}

	found := false
	rect := datastore.NewRect(
		s.Latitude()-latWindow, s.Latitude()+latWindow,
		s.Longitude()-lonWindow, s.Longitude()+lonWindow,
	)
	kept.Range(body, rect, func(k spatial.Sample) bool {
		if s.DistanceTo(k) < minAngle {
			found = true
			return false
		}
		return true
	})
	return found
}

func init() {
	RegisterPruner("proximity", func(t tuning.Tuning) Pruner {
		return NewProximityPruner(t.Proximity.MinDistanceM, t.Proximity.DefaultRadiusM)
	})
}
