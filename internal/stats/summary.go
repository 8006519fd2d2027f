package stats

import (
	"math"
	"sort"
)

// Summary describes a distribution of elevations
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`

	// BelowSeaLevel is the fraction of values under zero
	BelowSeaLevel float64 `json:"below_sea_level"`
}

// Summarize computes the five-number summary, mean and population standard
// deviation of values. An empty input yields a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	// Create a copy to avoid modifying the original slice
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(sorted)
	below := 0
	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
		if v < 0 {
			below++
		}
	}
	n := float64(len(sorted))

	return Summary{
		Count:         len(sorted),
		Min:           sorted[0],
		Q1:            quantileSorted(sorted, 0.25),
		Median:        quantileSorted(sorted, 0.5),
		Q3:            quantileSorted(sorted, 0.75),
		Max:           sorted[len(sorted)-1],
		Mean:          mean,
		StdDev:        math.Sqrt(sq / n),
		BelowSeaLevel: float64(below) / n,
	}
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Quantile calculates the q-th quantile (0 <= q <= 1)
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

// quantileSorted interpolates linearly between the closest ranks
func quantileSorted(sorted []float64, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
