package datastore

import (
	"math"
	"testing"

	"github.com/jengzang/landsat-go/internal/spatial"
)

func kerbinScenario() *Index {
	idx := NewIndex()
	idx.Insert("Kerbin", 10.0, 20.0, 100.0)
	idx.Insert("Kerbin", 12.0, 22.0, 300.0)
	return idx
}

func TestAverageElevationScenario(t *testing.T) {
	idx := kerbinScenario()

	if got := idx.AverageElevation("Kerbin", 9, 13, 19, 23); got != 200.0 {
		t.Fatalf("average = %v, want 200", got)
	}
	if got := idx.AverageElevation("Kerbin", 9, 13, 30, 40); !math.IsNaN(got) {
		t.Fatalf("average over empty rect = %v, want NaN", got)
	}
	if got := idx.CountForBody("Kerbin"); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestAverageElevationFlipTolerant(t *testing.T) {
	idx := kerbinScenario()
	idx.Insert("Kerbin", 11, 21, -50)

	tests := []struct {
		name                   string
		lat1, lat2, lon1, lon2 float64
	}{
		{"ordered", 9, 13, 19, 23},
		{"latitude reversed", 13, 9, 19, 23},
		{"longitude reversed", 9, 13, 23, 19},
		{"both reversed", 13, 9, 23, 19},
	}
	want := (100.0 + 300.0 - 50.0) / 3
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.AverageElevation("Kerbin", tt.lat1, tt.lat2, tt.lon1, tt.lon2)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("average = %v, want %v", got, want)
			}
		})
	}
}

func TestAverageElevationInclusiveBoundsAndRawValues(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Eve", 0, 0, -400)
	idx.Insert("Eve", 0, 10, -200)
	idx.Insert("Eve", 5, 5, 900)

	got := idx.AverageElevation("Eve", 0, 0, 0, 10)
	if got != -300 {
		t.Fatalf("average = %v, want -300 (raw, below sea level)", got)
	}
	if !HasData(got) {
		t.Fatalf("negative average reported as no data")
	}
}

func TestAverageElevationZeroIsData(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Minmus", 1, 1, 0)
	got := idx.AverageElevation("Minmus", 0, 2, 0, 2)
	if got != 0 || !HasData(got) {
		t.Fatalf("average = %v, want 0 with data", got)
	}
}

func TestRangeVisitsOnlyBand(t *testing.T) {
	idx := NewIndex()
	for lat := -10; lat <= 10; lat++ {
		for lon := -10; lon <= 10; lon++ {
			idx.Insert("Duna", float64(lat), float64(lon), float64(lat*100+lon))
		}
	}
	var visited []spatial.Sample
	idx.Range("Duna", NewRect(-1, 1, 3, 4), func(s spatial.Sample) bool {
		visited = append(visited, s)
		return true
	})
	if len(visited) != 6 {
		t.Fatalf("visited %d samples, want 6", len(visited))
	}
	for i := 1; i < len(visited); i++ {
		prev, cur := visited[i-1], visited[i]
		if prev.Latitude() > cur.Latitude() ||
			(prev.Latitude() == cur.Latitude() && prev.Longitude() >= cur.Longitude()) {
			t.Fatalf("samples out of order at %d: %v then %v", i, prev, cur)
		}
	}
}

func TestSamplesLimit(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 10; i++ {
		idx.Insert("Ike", float64(i), 0, 1)
	}
	if got := idx.Samples("Ike", NewRect(0, 9, 0, 0), 4); len(got) != 4 {
		t.Fatalf("Samples returned %d, want 4", len(got))
	}
	if got := idx.Samples("Ike", NewRect(0, 9, 0, 0), 0); len(got) != 10 {
		t.Fatalf("Samples returned %d, want 10", len(got))
	}
}

func TestNaNRectHasNoData(t *testing.T) {
	idx := kerbinScenario()
	if got := idx.AverageElevation("Kerbin", math.NaN(), 13, 19, 23); HasData(got) {
		t.Fatalf("average with NaN bound = %v, want NaN", got)
	}
}

func TestReadingsWalkOrder(t *testing.T) {
	idx := NewIndex()
	idx.Insert("Mun", 2, 2, 1)
	idx.Insert("Kerbin", 5, 1, 2)
	idx.Insert("Kerbin", 1, 9, 3)

	got := idx.Readings()
	want := []Reading{
		{Body: "Kerbin", Latitude: 1, Longitude: 9, Elevation: 3},
		{Body: "Kerbin", Latitude: 5, Longitude: 1, Elevation: 2},
		{Body: "Mun", Latitude: 2, Longitude: 2, Elevation: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Readings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Readings[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
