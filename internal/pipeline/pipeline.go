// Package pipeline runs the per-series density workflow: load, estimate
// bins, resolve parameters, build the histogram and KDE, write the
// artifacts and archive them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/gate"
	"github.com/san-kum/chapkde/internal/labels"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/params"
	"github.com/san-kum/chapkde/internal/render"
	"github.com/san-kum/chapkde/internal/series"
	"github.com/san-kum/chapkde/internal/storage"
	"github.com/san-kum/chapkde/internal/xvg"
)

type Options struct {
	// WorkDir holds the manifest and sample files; intermediate artifacts
	// are written here before they are archived.
	WorkDir    string
	Manifest   string
	OutputRoot string
	// Mode, when non-nil, replaces the manifest run mode.
	Mode             *manifest.Mode
	DefaultBandwidth density.Bandwidth
	GridPoints       int
	// BinCount and Bandwidth override the proposal of every series before
	// the gate resolves it.
	BinCount  *int
	Bandwidth *density.Bandwidth
}

func DefaultOptions() Options {
	return Options{
		WorkDir:          ".",
		Manifest:         manifest.DefaultFile,
		OutputRoot:       storage.DefaultRoot,
		DefaultBandwidth: density.Silverman,
		GridPoints:       density.DefaultGridPoints,
	}
}

// SeriesResult describes one processed series.
type SeriesResult struct {
	Series   string
	Kind     labels.Kind
	Samples  int
	Estimate density.BinEstimate
	Decision gate.Decision
	// KernelWidth is the Gaussian kernel standard deviation actually used.
	KernelWidth float64
	Dir         string
	Archived    []string
}

type Result struct {
	Manifest *manifest.Manifest
	Mode     manifest.Mode
	Root     string
	// Backup is where a previous output root was moved, if there was one.
	Backup   string
	Series   []SeriesResult
	RunFiles []string
}

// Observer is notified as the run progresses.
type Observer interface {
	OnStage(series, stage string)
	OnSeries(res SeriesResult)
}

type Runner struct {
	opts      Options
	renderer  render.Renderer
	prompter  gate.Prompter
	logger    *slog.Logger
	observers []Observer
}

func New(opts Options, renderer render.Renderer, prompter gate.Prompter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.GridPoints <= 0 {
		opts.GridPoints = density.DefaultGridPoints
	}
	return &Runner{opts: opts, renderer: renderer, prompter: prompter, logger: logger}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// run holds the per-run collaborators shared by all series.
type run struct {
	manifest *manifest.Manifest
	archive  *storage.Archive
	store    *params.Store
	summary  *storage.SummaryLog
	gate     *gate.Gate
}

// Run processes every manifest series in order. It stops at the first
// error, including density.ErrUserAbort; series archived before that stay
// in place. Run-level files are archived only after all series succeed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.renderer == nil {
		return nil, fmt.Errorf("no image renderer: %w", density.ErrMissingDependency)
	}
	if err := r.opts.DefaultBandwidth.Validate(); err != nil {
		return nil, err
	}

	manifestPath := r.path(r.opts.Manifest)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	mode := m.Mode
	if r.opts.Mode != nil {
		mode = *r.opts.Mode
	}

	// Every sample must exist before the previous output is moved aside.
	for _, id := range m.Series {
		if !series.Exists(series.Path(r.opts.WorkDir, id)) {
			return nil, fmt.Errorf("series %s: %s: %w", id, series.FileName(id), density.ErrMissingFile)
		}
	}

	archive := storage.New(r.path(r.opts.OutputRoot), r.logger)
	backup, err := archive.Prepare()
	if err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	store := params.NewStore(r.opts.WorkDir)
	st := &run{
		manifest: m,
		archive:  archive,
		store:    store,
		summary:  storage.NewSummaryLog(r.opts.WorkDir),
		gate:     gate.New(mode, r.prompter, store),
	}
	result := &Result{Manifest: m, Mode: mode, Root: archive.Root(), Backup: backup}

	r.logger.Info("run started", "dataset", m.DisplayName, "mode", mode, "series", len(m.Series))
	for _, id := range m.Series {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := r.processSeries(ctx, st, id)
		if err != nil {
			if errors.Is(err, density.ErrUserAbort) {
				r.logger.Info("run stopped by operator", "series", id)
			}
			return result, err
		}
		result.Series = append(result.Series, res)
		for _, o := range r.observers {
			o.OnSeries(res)
		}
	}

	moved, err := archive.ArchiveRun([]string{store.AggregatePath(), st.summary.AggregatePath(), manifestPath})
	if err != nil {
		r.logger.Warn("run-level files partly archived", "err", err)
	}
	result.RunFiles = moved
	r.logger.Info("run finished", "root", archive.Root(), "series", len(result.Series))
	return result, nil
}

func (r *Runner) processSeries(ctx context.Context, st *run, id string) (SeriesResult, error) {
	log := r.logger.With("series", id)
	res := SeriesResult{Series: id, Kind: labels.KindOf(id)}

	r.stage(id, "load")
	samplePath := series.Path(r.opts.WorkDir, id)
	sample, err := series.Load(samplePath)
	if err != nil {
		return res, err
	}
	res.Samples = len(sample)

	r.stage(id, "bins")
	est, err := density.EstimateBins(sample)
	if err != nil {
		return res, &density.EstimationError{Series: id, Stage: "bins", Wrapped: err}
	}
	res.Estimate = est
	log.Debug("bins estimated", "fd", est.FreedmanDiaconis, "scott", est.Scott, "sqrt", est.Sqrt, "rice", est.Rice)

	proposed := params.Defaults(est, r.opts.DefaultBandwidth)
	if err := proposed.Override(r.opts.BinCount, r.opts.Bandwidth); err != nil {
		return res, fmt.Errorf("series %s: override: %w", id, err)
	}
	paramPath, err := st.store.WriteDefaults(id, proposed)
	if err != nil {
		return res, err
	}
	fragment, err := st.summary.Write(id, est)
	if err != nil {
		return res, err
	}

	r.stage(id, "gate")
	decision, err := st.gate.Resolve(ctx, id, proposed)
	res.Decision = decision
	if err != nil {
		return res, fmt.Errorf("series %s: %w", id, err)
	}
	committed := decision.Params
	if err := committed.Validate(); err != nil {
		return res, fmt.Errorf("series %s: %w", id, err)
	}
	// An unknown rule must fail here, not after the histogram is on disk.
	if _, err := density.KernelWidth(sample, committed.Bandwidth); err != nil {
		return res, &density.EstimationError{Series: id, Stage: "kde", Wrapped: err}
	}
	if decision.Edited {
		log.Info("parameters edited", "bin_count", committed.BinCount, "bandwidth", committed.Bandwidth)
	}
	if err := st.store.Commit(id, committed); err != nil {
		return res, err
	}

	label := labels.For(id)
	if label.Kind == labels.KindUnknown {
		log.Warn("unrecognised series kind, labelling axes with the identifier")
	}

	r.stage(id, "histogram")
	hist, err := density.BuildHistogram(sample, committed.BinCount)
	if err != nil {
		return res, &density.EstimationError{Series: id, Stage: "histogram", Wrapped: err}
	}
	histTable := r.path(xvg.HistogramFile(id))
	if err := xvg.Write(histTable, xvg.Histogram(id, st.manifest.DisplayName, label, hist.CountPoints())); err != nil {
		return res, err
	}
	histImage := r.path(render.HistogramImage(id))
	if err := r.renderer.Histogram(histImage, render.HistogramPlot{Series: id, XLabel: label.Plot, Histogram: hist}); err != nil {
		return res, fmt.Errorf("series %s: render histogram: %w", id, err)
	}

	r.stage(id, "kde")
	kde, err := density.EstimateKDE(sample, committed.Bandwidth, r.opts.GridPoints)
	if err != nil {
		var estErr *density.EstimationError
		if errors.As(err, &estErr) {
			estErr.Series = id
		}
		return res, err
	}
	res.KernelWidth = kde.H
	kdeTable := r.path(xvg.KDEFile(id))
	if err := xvg.Write(kdeTable, xvg.KDE(id, st.manifest.DisplayName, label, kde.Points)); err != nil {
		return res, err
	}
	kdeImage := r.path(render.DensityImage(id))
	if err := r.renderer.Density(kdeImage, render.DensityPlot{Series: id, XLabel: label.Plot, Histogram: hist, Curve: kde.Points}); err != nil {
		return res, fmt.Errorf("series %s: render density: %w", id, err)
	}

	r.stage(id, "archive")
	res.Dir = st.archive.SeriesDir(id)
	res.Archived, err = st.archive.ArchiveSeries(id, []string{
		paramPath, fragment, histTable, histImage, kdeTable, kdeImage, samplePath,
	})
	if err != nil {
		log.Warn("series partly archived", "err", err)
	}
	log.Info("series done", "bins", committed.BinCount, "bandwidth", committed.Bandwidth, "h", kde.H, "files", len(res.Archived))
	return res, nil
}

func (r *Runner) stage(id, stage string) {
	for _, o := range r.observers {
		o.OnStage(id, stage)
	}
}

func (r *Runner) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.opts.WorkDir, name)
}
