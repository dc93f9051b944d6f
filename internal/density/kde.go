package density

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// EstimateKDE fits a Gaussian kernel density estimate to the sample and
// evaluates it at gridPoints equally spaced points from min to max
// inclusive. A non-positive gridPoints selects DefaultGridPoints.
func EstimateKDE(s Sample, bw Bandwidth, gridPoints int) (KDE, error) {
	if err := s.Validate(); err != nil {
		return KDE{}, &EstimationError{Stage: "kde", Wrapped: err}
	}
	if len(s) < 2 {
		return KDE{}, &EstimationError{Stage: "kde", Wrapped: fmt.Errorf("need at least 2 points: %w", ErrDegenerateSample)}
	}
	if gridPoints <= 0 {
		gridPoints = DefaultGridPoints
	}

	h, err := KernelWidth(s, bw)
	if err != nil {
		return KDE{}, &EstimationError{Stage: "kde", Wrapped: err}
	}

	lo, hi := s.Bounds()
	xs := grid(lo, hi, gridPoints)
	kernels := make([]distuv.Normal, len(s))
	for i, v := range s {
		kernels[i] = distuv.Normal{Mu: v, Sigma: h}
	}

	n := float64(len(s))
	points := make([]Point, gridPoints)
	for i, x := range xs {
		var sum float64
		for _, k := range kernels {
			sum += k.Prob(x)
		}
		points[i] = Point{X: x, Y: sum / n}
	}

	return KDE{Points: points, Bandwidth: bw, H: h}, nil
}

// KernelWidth resolves a bandwidth to the standard deviation of the
// Gaussian kernel. Named rules scale the sample standard deviation by
// Scott's n^(-1/5) or Silverman's (3n/4)^(-1/5) factor; explicit widths
// are used as given.
func KernelWidth(s Sample, bw Bandwidth) (float64, error) {
	sigma := stat.StdDev(s, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return 0, fmt.Errorf("zero variance: %w", ErrDegenerateSample)
	}
	if !bw.IsNamed() {
		if err := bw.Validate(); err != nil {
			return 0, err
		}
		return bw.Value, nil
	}

	n := float64(len(s))
	switch strings.ToLower(bw.Rule) {
	case RuleScott:
		return sigma * math.Pow(n, -0.2), nil
	case RuleSilverman:
		return sigma * math.Pow(n*3/4, -0.2), nil
	default:
		return 0, fmt.Errorf("%q: %w", bw.Rule, ErrUnknownBandwidth)
	}
}

// grid returns n equally spaced points whose endpoints are exactly lo and hi.
func grid(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	xs := floats.Span(make([]float64, n), lo, hi)
	xs[0], xs[n-1] = lo, hi
	return xs
}
