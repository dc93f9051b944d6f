package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/storage"
)

var (
	barFill   = color.NRGBA{R: 0x4c, G: 0xe4, B: 0x18, A: 0xe6}
	curveLine = color.NRGBA{R: 0xff, A: 0xff}
)

// PNG draws plots with gonum/plot and encodes them as PNG.
type PNG struct {
	opts Options
}

func NewPNG(opts Options) *PNG {
	if opts.WidthIn <= 0 || opts.HeightIn <= 0 || opts.DPI <= 0 {
		def := DefaultOptions()
		if opts.WidthIn <= 0 {
			opts.WidthIn = def.WidthIn
		}
		if opts.HeightIn <= 0 {
			opts.HeightIn = def.HeightIn
		}
		if opts.DPI <= 0 {
			opts.DPI = def.DPI
		}
	}
	return &PNG{opts: opts}
}

func (r *PNG) Histogram(path string, hp HistogramPlot) error {
	p := plot.New()
	p.Title.Text = "Histogram of the " + hp.Series
	p.X.Label.Text = hp.XLabel
	p.Y.Label.Text = "Count"

	hist := bars(hp.Histogram, false)
	p.Add(hist)
	p.Legend.Add(hp.Series, hist)
	p.Legend.Top = true

	return r.save(path, p)
}

func (r *PNG) Density(path string, dp DensityPlot) error {
	p := plot.New()
	p.Title.Text = "Kernel Density Estimation Plot of the " + dp.Series
	p.X.Label.Text = dp.XLabel
	p.Y.Label.Text = "Density"

	hist := bars(dp.Histogram, true)
	p.Add(hist)
	p.Legend.Add(dp.Series, hist)

	xys := make(plotter.XYs, len(dp.Curve))
	for i, pt := range dp.Curve {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("density curve of %s: %w", dp.Series, err)
	}
	line.Color = curveLine
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(dp.Series+"_PDF", line)
	p.Legend.Top = true

	return r.save(path, p)
}

// bars converts precomputed bins so the image shows the same binning as
// the table.
func bars(h density.Histogram, normalized bool) *plotter.Histogram {
	bins := make([]plotter.HistogramBin, h.Bins())
	for i := range bins {
		w := float64(h.Counts[i])
		if normalized {
			w = h.Densities[i]
		}
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: w}
	}
	return &plotter.Histogram{
		Bins:      bins,
		Width:     h.Width(),
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	}
}

func (r *PNG) save(path string, p *plot.Plot) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(r.opts.WidthIn)*vg.Inch, vg.Length(r.opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(r.opts.DPI),
	)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return storage.WriteFileAtomic(path, buf.Bytes(), 0644)
}
