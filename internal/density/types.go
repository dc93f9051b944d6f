package density

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// DefaultGridPoints is the number of evaluation points of a KDE curve.
const DefaultGridPoints = 300

type Sample []float64

func (s Sample) Clone() Sample {
	c := make(Sample, len(s))
	copy(c, s)
	return c
}

// Validate reports whether the sample is non-empty and every value is finite.
func (s Sample) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty sample: %w", ErrDegenerateSample)
	}
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %d is not finite (%v): %w", i, v, ErrParse)
		}
	}
	return nil
}

// Bounds returns the smallest and largest value. It panics on an empty sample.
func (s Sample) Bounds() (lo, hi float64) {
	return floats.Min(s), floats.Max(s)
}

func (s Sample) Range() float64 {
	lo, hi := s.Bounds()
	return hi - lo
}

// Point is one (x, y) row of a plot-ready table.
type Point struct {
	X float64
	Y float64
}

// BinEstimate holds the bin counts proposed by the four binning rules.
// FreedmanDiaconis is the default; the others are advisory.
type BinEstimate struct {
	FreedmanDiaconis int
	Scott            int
	Sqrt             int
	Rice             int
}

func (b BinEstimate) Default() int {
	return b.FreedmanDiaconis
}

// Histogram is an equal-width binning of a sample. Edges has one more
// element than Counts and Densities.
type Histogram struct {
	Edges     []float64
	Counts    []int
	Densities []float64
}

func (h Histogram) Bins() int {
	return len(h.Counts)
}

func (h Histogram) Width() float64 {
	if len(h.Edges) < 2 {
		return 0
	}
	return h.Edges[1] - h.Edges[0]
}

// CountPoints returns (upper edge, raw count) pairs.
func (h Histogram) CountPoints() []Point {
	pts := make([]Point, len(h.Counts))
	for i, c := range h.Counts {
		pts[i] = Point{X: h.Edges[i+1], Y: float64(c)}
	}
	return pts
}

// DensityPoints returns (upper edge, density) pairs.
func (h Histogram) DensityPoints() []Point {
	pts := make([]Point, len(h.Densities))
	for i, d := range h.Densities {
		pts[i] = Point{X: h.Edges[i+1], Y: d}
	}
	return pts
}

// KDE is a kernel density estimate evaluated on an equally spaced grid.
type KDE struct {
	Points    []Point
	Bandwidth Bandwidth
	H         float64
}

const (
	RuleScott     = "scott"
	RuleSilverman = "silverman"
)

// Bandwidth selects the kernel width of a KDE: either a named rule
// (Rule != "") or an explicit positive width.
type Bandwidth struct {
	Rule  string
	Value float64
}

var (
	Scott     = Bandwidth{Rule: RuleScott}
	Silverman = Bandwidth{Rule: RuleSilverman}
)

func NamedBandwidth(rule string) Bandwidth {
	return Bandwidth{Rule: rule}
}

func FixedBandwidth(h float64) Bandwidth {
	return Bandwidth{Value: h}
}

// ParseBandwidth reads a bandwidth token. Purely alphabetic tokens are
// kept verbatim as rule names; anything else must be a positive real.
func ParseBandwidth(token string) (Bandwidth, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Bandwidth{}, fmt.Errorf("empty bandwidth: %w", ErrParse)
	}
	if isAlpha(token) {
		return NamedBandwidth(token), nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return Bandwidth{}, fmt.Errorf("bandwidth %q: %w", token, ErrParse)
	}
	b := FixedBandwidth(v)
	if err := b.Validate(); err != nil {
		return Bandwidth{}, err
	}
	return b, nil
}

func (b Bandwidth) IsNamed() bool {
	return b.Rule != ""
}

func (b Bandwidth) Validate() error {
	if b.IsNamed() {
		return nil
	}
	if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) || b.Value <= 0 {
		return fmt.Errorf("bandwidth must be a positive real, got %v: %w", b.Value, ErrParse)
	}
	return nil
}

func (b Bandwidth) String() string {
	if b.IsNamed() {
		return b.Rule
	}
	return strconv.FormatFloat(b.Value, 'g', -1, 64)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
