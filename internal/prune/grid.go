package prune

import (
	"context"
	"sort"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/spatial"
	"github.com/jengzang/landsat-go/internal/tuning"
)

// gridPruner buckets samples into geohash cells and keeps at most maxPerCell
// samples per cell, those closest to the cell centre.
type gridPruner struct {
	precision  int
	maxPerCell int
}

// NewGridPruner creates the grid thinning policy
func NewGridPruner(precision, maxPerCell int) Pruner {
	return &gridPruner{precision: precision, maxPerCell: maxPerCell}
}

func (g *gridPruner) Name() string { return "grid" }

func (g *gridPruner) Prune(ctx context.Context, snapshot *datastore.Index) (*datastore.Index, error) {
	out := datastore.NewIndex()
	for _, body := range snapshot.BodiesKnown() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells := make(map[string][]spatial.Sample)
		snapshot.Range(body, datastore.Everywhere, func(s spatial.Sample) bool {
			key := spatial.EncodeGeohash(s.Latitude(), s.Longitude(), g.precision)
			cells[key] = append(cells[key], s)
			return true
		})

		for key, samples := range cells {
			for _, s := range g.keep(key, samples) {
				if _, err := out.Insert(body, s.Latitude(), s.Longitude(), s.Elevation()); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

func (g *gridPruner) keep(cell string, samples []spatial.Sample) []spatial.Sample {
	if len(samples) <= g.maxPerCell {
		return samples
	}
	lat, lon := spatial.DecodeGeohash(cell)
	centre := spatial.NewSample(lat, lon, 0)
	// samples arrive in index order, so ties resolve deterministically
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].DistanceTo(centre) < samples[j].DistanceTo(centre)
	})
	return samples[:g.maxPerCell]
}

func init() {
	RegisterPruner("grid", func(t tuning.Tuning) Pruner {
		return NewGridPruner(t.Grid.Precision, t.Grid.MaxPerCell)
	})
}
