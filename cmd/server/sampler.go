package main

import (
	"context"
	"math"
	"sync"

	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/spatial"
)

// groundTrack is a deterministic stand-in for the vessel's terrain sensor:
// it follows an inclined circular orbit and reads a synthetic height field.
type groundTrack struct {
	body        string
	inclination float64 // degrees
	stepDeg     float64 // orbital phase advanced per measurement
	driftDeg    float64 // longitude drift per orbit from body rotation

	mu    sync.Mutex
	phase float64
	orbit int
}

func newGroundTrack(body string) *groundTrack {
	return &groundTrack{body: body, inclination: 63.4, stepDeg: 0.5, driftDeg: 7.3}
}

func (g *groundTrack) Sample(ctx context.Context) ([]datastore.Reading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := g.phase * math.Pi / 180
	inc := g.inclination * math.Pi / 180
	lat := math.Asin(math.Sin(inc)*math.Sin(u)) * 180 / math.Pi
	lon := math.Atan2(math.Cos(inc)*math.Sin(u), math.Cos(u))*180/math.Pi - float64(g.orbit)*g.driftDeg
	lon = spatial.NormalizeLongitude180(lon)

	g.phase += g.stepDeg
	if g.phase >= 360 {
		g.phase -= 360
		g.orbit++
	}

	// quantize like a sensor with a fixed footprint
	lat = math.Round(lat*100) / 100
	lon = math.Round(lon*100) / 100
	return []datastore.Reading{{Body: g.body, Latitude: lat, Longitude: lon, Elevation: terrainHeight(lat, lon)}}, nil
}

// terrainHeight is a smooth height field in metres, partly below sea level
func terrainHeight(lat, lon float64) float64 {
	φ := lat * math.Pi / 180
	λ := lon * math.Pi / 180
	h := 1800*math.Sin(3*φ)*math.Cos(2*λ) + 900*math.Cos(5*λ+φ) + 400*math.Sin(11*φ)*math.Sin(7*λ)
	return math.Round(h*10) / 10
}
