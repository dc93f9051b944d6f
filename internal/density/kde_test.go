package density

import (
	"errors"
	"math"
	"testing"
)

func TestEstimateKDEGrid(t *testing.T) {
	s := Sample{2.1, 2.4, 2.2, 3.0, 2.8, 2.5, 2.45, 2.9, 2.05, 2.6}

	kde, err := EstimateKDE(s, Silverman, DefaultGridPoints)
	if err != nil {
		t.Fatalf("kde failed: %v", err)
	}

	if len(kde.Points) != 300 {
		t.Fatalf("expected 300 points, got %d", len(kde.Points))
	}
	if kde.Points[0].X != 2.05 {
		t.Errorf("expected first x 2.05, got %v", kde.Points[0].X)
	}
	if kde.Points[299].X != 3.0 {
		t.Errorf("expected last x 3.0, got %v", kde.Points[299].X)
	}
	for i, p := range kde.Points {
		if p.Y < 0 || math.IsNaN(p.Y) {
			t.Fatalf("point %d has invalid density %v", i, p.Y)
		}
		if i > 0 && p.X <= kde.Points[i-1].X {
			t.Fatalf("grid not increasing at %d", i)
		}
	}
}

func TestEstimateKDEExplicitBandwidth(t *testing.T) {
	s := Sample{0, 1}

	kde, err := EstimateKDE(s, FixedBandwidth(1), 3)
	if err != nil {
		t.Fatalf("kde failed: %v", err)
	}

	if kde.H != 1 {
		t.Errorf("expected h 1, got %v", kde.H)
	}

	phi := func(z float64) float64 { return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi) }
	expected := (phi(0) + phi(1)) / 2
	if math.Abs(kde.Points[0].Y-expected) > 1e-12 {
		t.Errorf("expected density %f at 0, got %f", expected, kde.Points[0].Y)
	}
	if math.Abs(kde.Points[0].Y-kde.Points[2].Y) > 1e-12 {
		t.Error("expected symmetric density")
	}
}

func TestKernelWidthRules(t *testing.T) {
	s := Sample{1, 2, 3, 4, 5, 6, 7, 8}
	sigma := math.Sqrt(6.0)

	h, err := KernelWidth(s, Scott)
	if err != nil {
		t.Fatalf("scott failed: %v", err)
	}
	if math.Abs(h-sigma*math.Pow(8, -0.2)) > 1e-12 {
		t.Errorf("unexpected scott width %f", h)
	}

	h, err = KernelWidth(s, NamedBandwidth("Silverman"))
	if err != nil {
		t.Fatalf("silverman failed: %v", err)
	}
	if math.Abs(h-sigma*math.Pow(6, -0.2)) > 1e-12 {
		t.Errorf("unexpected silverman width %f", h)
	}

	if _, err := KernelWidth(s, NamedBandwidth("magic")); !errors.Is(err, ErrUnknownBandwidth) {
		t.Errorf("expected ErrUnknownBandwidth, got %v", err)
	}
}

func TestEstimateKDEDegenerate(t *testing.T) {
	tests := []Sample{
		{1.5},
		{2, 2, 2, 2},
	}

	for _, s := range tests {
		_, err := EstimateKDE(s, Scott, 10)
		if !errors.Is(err, ErrDegenerateSample) {
			t.Errorf("sample %v: expected ErrDegenerateSample, got %v", s, err)
		}
		var estErr *EstimationError
		if !errors.As(err, &estErr) {
			t.Errorf("sample %v: expected EstimationError, got %T", s, err)
		}
	}
}

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		in      string
		want    Bandwidth
		wantErr bool
	}{
		{"silverman", Silverman, false},
		{" scott ", Scott, false},
		{"0.25", FixedBandwidth(0.25), false},
		{"1e-3", FixedBandwidth(0.001), false},
		{"-1", Bandwidth{}, true},
		{"0", Bandwidth{}, true},
		{"", Bandwidth{}, true},
		{"abc1", Bandwidth{}, true},
	}

	for _, tt := range tests {
		got, err := ParseBandwidth(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrParse) {
				t.Errorf("%q: expected ErrParse, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.in, tt.want, got)
		}
		back, err := ParseBandwidth(got.String())
		if err != nil || back != got {
			t.Errorf("%q: round trip gave %+v, %v", tt.in, back, err)
		}
	}
}
