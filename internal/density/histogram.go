package density

import "fmt"

// BuildHistogram bins a sample into equal-width bins spanning [min, max].
// Bins are half-open except the last, which also holds max.
func BuildHistogram(s Sample, bins int) (Histogram, error) {
	if err := s.Validate(); err != nil {
		return Histogram{}, err
	}
	if bins < 1 {
		return Histogram{}, fmt.Errorf("bin count must be >= 1, got %d: %w", bins, ErrParse)
	}
	lo, hi := s.Bounds()
	if hi == lo {
		return Histogram{}, fmt.Errorf("zero range: %w", ErrDegenerateSample)
	}

	edges := grid(lo, hi, bins+1)
	counts := make([]int, bins)
	for _, v := range s {
		counts[binIndex(edges, v)]++
	}

	n := float64(len(s))
	densities := make([]float64, bins)
	for i, c := range counts {
		densities[i] = float64(c) / (n * (edges[i+1] - edges[i]))
	}

	return Histogram{Edges: edges, Counts: counts, Densities: densities}, nil
}

func binIndex(edges []float64, v float64) int {
	bins := len(edges) - 1
	lo, hi := edges[0], edges[bins]
	idx := int(float64(bins) * (v - lo) / (hi - lo))
	if idx >= bins {
		idx = bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	// the scaled index can land one bin off near an edge
	if idx > 0 && v < edges[idx] {
		idx--
	} else if idx < bins-1 && v >= edges[idx+1] {
		idx++
	}
	return idx
}
