package density

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EstimateBins computes the Freedman-Diaconis, Scott, square-root and Rice
// bin counts of a sample. Quartiles interpolate linearly between order
// statistics at rank (n-1)p.
func EstimateBins(s Sample) (BinEstimate, error) {
	if err := s.Validate(); err != nil {
		return BinEstimate{}, err
	}
	n := len(s)
	if n < 2 {
		return BinEstimate{}, fmt.Errorf("need at least 2 points, got %d: %w", n, ErrDegenerateSample)
	}
	dataRange := s.Range()
	if dataRange == 0 {
		return BinEstimate{}, fmt.Errorf("zero range: %w", ErrDegenerateSample)
	}

	sorted := s.Clone()
	sort.Float64s(sorted)
	iqr := Quantile(sorted, 0.75) - Quantile(sorted, 0.25)

	cbrt := math.Cbrt(float64(n))
	fdWidth := 2 * iqr / cbrt
	scottWidth := 3.5 * stat.StdDev(sorted, nil) / cbrt

	return BinEstimate{
		FreedmanDiaconis: countForWidth(dataRange, fdWidth),
		Scott:            countForWidth(dataRange, scottWidth),
		Sqrt:             atLeastOne(math.Ceil(math.Sqrt(float64(n)))),
		Rice:             atLeastOne(math.Ceil(2 * cbrt)),
	}, nil
}

// Quantile returns the p-quantile of an ascending sample, interpolating
// linearly at h = (n-1)p between x[floor(h)] and the next value.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// countForWidth returns ceil(range/width), or 1 when the rule collapses
// to a zero width.
func countForWidth(dataRange, width float64) int {
	if width <= 0 || math.IsNaN(width) {
		return 1
	}
	return atLeastOne(math.Ceil(dataRange / width))
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
