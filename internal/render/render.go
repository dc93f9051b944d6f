// Package render turns histograms and density curves into raster images.
package render

import (
	"github.com/san-kum/chapkde/internal/density"
)

// HistogramImage and DensityImage return the image names of a series.
func HistogramImage(series string) string { return series + "_histogram.png" }
func DensityImage(series string) string   { return series + "_KDE_plot.png" }

// HistogramPlot is a count histogram of one series.
type HistogramPlot struct {
	Series    string
	XLabel    string
	Histogram density.Histogram
}

// DensityPlot overlays the density-normalized histogram with the KDE curve.
type DensityPlot struct {
	Series    string
	XLabel    string
	Histogram density.Histogram
	Curve     []density.Point
}

type Renderer interface {
	Histogram(path string, p HistogramPlot) error
	Density(path string, p DensityPlot) error
}

// Options controls the output size of raster renderers.
type Options struct {
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
	DPI      int     `yaml:"dpi"`
}

func DefaultOptions() Options {
	return Options{WidthIn: 6.4, HeightIn: 4.8, DPI: 600}
}

// Discard renders nothing. Archival skips the missing images.
type Discard struct{}

func (Discard) Histogram(string, HistogramPlot) error { return nil }
func (Discard) Density(string, DensityPlot) error     { return nil }
