package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Sample is one elevation measurement taken at a latitude/longitude on a
// celestial body. Samples are immutable; within a body they are identified by
// the exact (latitude, longitude) pair.
type Sample struct {
	lat  float64
	lon  float64
	elev float64
}

// NewSample creates a sample. Coordinates are stored exactly as given.
func NewSample(latitude, longitude, elevation float64) Sample {
	return Sample{lat: latitude, lon: longitude, elev: elevation}
}

// Latitude returns the stored latitude in degrees
func (s Sample) Latitude() float64 { return s.lat }

// Longitude returns the stored longitude in degrees, not normalized
func (s Sample) Longitude() float64 { return s.lon }

// Elevation returns the raw elevation in meters, negative below sea level
func (s Sample) Elevation() float64 { return s.elev }

// ElevationClampedToSeaLevel returns the elevation with ocean floor reported as 0
func (s Sample) ElevationClampedToSeaLevel() float64 {
	return math.Max(s.elev, 0)
}

// LatLng returns the sample position as an s2.LatLng
func (s Sample) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(s.lat, s.lon)
}

// DistanceTo returns the great-circle central angle to other in radians.
// Multiply by the body radius for a physical distance.
func (s Sample) DistanceTo(other Sample) float64 {
	return CentralAngle(s.lat, s.lon, other.lat, other.lon).Radians()
}

// CentralAngle calculates the haversine central angle between two points given in degrees
func CentralAngle(lat1, lon1, lat2, lon2 float64) s1.Angle {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2)
}

// Finite reports whether every coordinate of the sample is a usable number
func (s Sample) Finite() bool {
	return isFinite(s.lat) && isFinite(s.lon) && isFinite(s.elev)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
