package spatial

import (
	"math"
	"strings"
)

// HaversineDistance calculates the great-circle distance between two points in meters
// on a sphere of the given radius
func HaversineDistance(lat1, lon1, lat2, lon2, radiusMeters float64) float64 {
	return CentralAngle(lat1, lon1, lat2, lon2).Radians() * radiusMeters
}

// NormalizeLongitude180 folds a longitude in degrees into [-180, 180]
func NormalizeLongitude180(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ClampLatitude limits a latitude to [-90, 90]
func ClampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Mean equatorial radii of the stock bodies, in meters
var bodyRadiusMeters = map[string]float64{
	"kerbol": 261600000,
	"moho":   250000,
	"eve":    700000,
	"gilly":  13000,
	"kerbin": 600000,
	"mun":    200000,
	"minmus": 60000,
	"duna":   320000,
	"ike":    130000,
	"dres":   138000,
	"jool":   6000000,
	"laythe": 500000,
	"vall":   300000,
	"tylo":   600000,
	"bop":    65000,
	"pol":    44000,
	"eeloo":  210000,
}

// BodyRadius returns the radius of a known body in meters.
// The lookup ignores case; ok is false for unknown bodies.
func BodyRadius(body string) (radius float64, ok bool) {
	radius, ok = bodyRadiusMeters[strings.ToLower(body)]
	return
}

// Constants
const (
	KerbinRadiusMeters = 600000.0
	DegreesPerRadian   = 180 / math.Pi
)
