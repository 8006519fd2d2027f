package spatial

import "strings"

// Base32 encoding for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash encodes latitude and longitude into a geohash string.
// precision is the number of characters (1-12). Longitude is folded into
// [-180, 180] first so unnormalized samples land in the right cell.
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}
	lat = ClampLatitude(lat)
	lon = NormalizeLongitude180(lon)

	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	geohash := make([]byte, 0, precision)
	bits, ch := 0, 0
	evenBit := true

	for len(geohash) < precision {
		if evenBit {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon > mid {
				ch |= 1 << (4 - bits)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		evenBit = !evenBit

		bits++
		if bits == 5 {
			geohash = append(geohash, base32[ch])
			bits, ch = 0, 0
		}
	}

	return string(geohash)
}

// GeohashBounds returns the bounding box of a geohash cell as
// (minLat, minLon, maxLat, maxLon). Unknown characters are skipped.
func GeohashBounds(geohash string) (float64, float64, float64, float64) {
	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	isLon := true
	for i := 0; i < len(geohash); i++ {
		idx := strings.IndexByte(base32, geohash[i])
		if idx == -1 {
			continue
		}
		for mask := 16; mask > 0; mask >>= 1 {
			r := &latRange
			if isLon {
				r = &lonRange
			}
			mid := (r[0] + r[1]) / 2
			if idx&mask != 0 {
				r[0] = mid
			} else {
				r[1] = mid
			}
			isLon = !isLon
		}
	}

	return latRange[0], lonRange[0], latRange[1], lonRange[1]
}

// DecodeGeohash returns the centre point of a geohash cell
func DecodeGeohash(geohash string) (lat, lon float64) {
	minLat, minLon, maxLat, maxLon := GeohashBounds(geohash)
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}
