package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/san-kum/chapkde/internal/config"
	"github.com/san-kum/chapkde/internal/console"
	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/gate"
	"github.com/san-kum/chapkde/internal/labels"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/params"
	"github.com/san-kum/chapkde/internal/pipeline"
	"github.com/san-kum/chapkde/internal/render"
	"github.com/san-kum/chapkde/internal/series"
	"github.com/san-kum/chapkde/internal/storage"
	"github.com/san-kum/chapkde/internal/xvg"
)

var (
	workDir    string
	verbose    bool
	configFile string
	preset     string
	mode       string
	bins       int
	bandwidth  string
	renderer   string
	gridPoints int
	dpi        int
	// Preview size
	height int
	width  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chapkde",
		Short:         "histogram and kernel density estimation of trajectory observables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", ".", "directory holding the manifest and sample files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "estimate, plot and archive every series of the manifest",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&mode, "mode", "", "override the manifest mode (full, semi, legacy)")
	runCmd.Flags().IntVar(&bins, "bins", 0, "bin count for every series")
	runCmd.Flags().StringVar(&bandwidth, "bandwidth", "", "bandwidth rule or width for every series")
	runCmd.Flags().StringVar(&renderer, "renderer", config.DefaultRenderer, "image renderer")
	runCmd.Flags().IntVar(&gridPoints, "grid", density.DefaultGridPoints, "KDE grid points")
	runCmd.Flags().IntVar(&dpi, "dpi", 600, "image resolution")

	estimateCmd := &cobra.Command{
		Use:   "estimate [sample_file]",
		Short: "print the bin estimates and kernel widths of a sample",
		Args:  cobra.ExactArgs(1),
		RunE:  estimateSample,
	}

	previewCmd := &cobra.Command{
		Use:   "preview [xvg_file]",
		Short: "terminal plot of a histogram or KDE table",
		Args:  cobra.ExactArgs(1),
		RunE:  previewTable,
	}
	previewCmd.Flags().IntVar(&height, "height", 12, "plot height")
	previewCmd.Flags().IntVar(&width, "width", 72, "plot width")

	summaryCmd := &cobra.Command{
		Use:   "summary [root]",
		Short: "list archived series and their committed parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listSeries,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tBANDWIDTH\tGRID\tRENDERER\tDPI")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				m := p.Mode
				if m == "" {
					m = "manifest"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n", name, m, p.Bandwidth, p.GridPoints, p.Renderer, p.Image.DPI)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, estimateCmd, previewCmd, summaryCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.Error.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfig layers preset, config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("mode") {
		cfg.Mode = mode
	}
	if cmd.Flags().Changed("renderer") {
		cfg.Renderer = renderer
	}
	if cmd.Flags().Changed("grid") {
		cfg.GridPoints = gridPoints
	}
	if cmd.Flags().Changed("dpi") {
		cfg.Image.DPI = dpi
	}
	return cfg, cfg.Validate()
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	opts := pipeline.DefaultOptions()
	opts.WorkDir = workDir
	opts.Manifest = cfg.Manifest
	opts.OutputRoot = cfg.OutputRoot
	opts.GridPoints = cfg.GridPoints
	if opts.DefaultBandwidth, err = cfg.DefaultBandwidthMethod(); err != nil {
		return err
	}
	if m, ok, err := cfg.ModeOverride(); err != nil {
		return err
	} else if ok {
		opts.Mode = &m
	}
	if cmd.Flags().Changed("bins") {
		opts.BinCount = &bins
	}
	if cmd.Flags().Changed("bandwidth") {
		bw, err := density.ParseBandwidth(bandwidth)
		if err != nil {
			return err
		}
		opts.Bandwidth = &bw
	}

	r, err := render.NewRegistry().Get(cfg.Renderer, cfg.Image)
	if err != nil {
		return err
	}

	var prompter gate.Prompter
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		prompter = gate.NewTeaPrompter(os.Stdin, os.Stdout)
	} else {
		prompter = gate.NewLinePrompter(os.Stdin, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(opts, r, prompter, newLogger())
	runner.AddObserver(progress{})

	fmt.Println(console.Title.Render("chapkde") + " " + console.Subtle.Render(filepath.Join(workDir, cfg.Manifest)))
	fmt.Println(console.Separator(48))

	res, err := runner.Run(ctx)
	if res != nil && res.Backup != "" {
		fmt.Println(console.Warning.Render("  previous output moved to " + res.Backup))
	}
	if errors.Is(err, density.ErrUserAbort) {
		fmt.Println(console.Warning.Render("  stopped at operator request"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(console.Separator(48))
	fmt.Println(console.Success.Render(fmt.Sprintf("  %d series archived in %s", len(res.Series), res.Root)))
	return nil
}

type progress struct{}

func (progress) OnStage(id, stage string) {
	if verbose {
		fmt.Println(console.Subtle.Render("  " + id + ": " + stage))
	}
}

func (progress) OnSeries(res pipeline.SeriesResult) {
	p := res.Decision.Params
	line := fmt.Sprintf("  %-12s bins=%-4d bandwidth=%-10s h=%.4g files=%d",
		res.Series, p.BinCount, p.Bandwidth, res.KernelWidth, len(res.Archived))
	if res.Decision.Edited {
		line += " (edited)"
	}
	fmt.Println(console.Success.Render("✓") + console.Value.Render(line))
}

func estimateSample(cmd *cobra.Command, args []string) error {
	path := args[0]
	sample, err := series.Load(path)
	if err != nil {
		return err
	}

	est, err := density.EstimateBins(sample)
	if err != nil {
		return err
	}

	id := filepath.Base(path)
	fmt.Print(storage.FormatBinSummary(id, est))

	lo, hi := sample.Bounds()
	fmt.Println(console.KeyValue("samples", strconv.Itoa(len(sample))))
	fmt.Println(console.KeyValue("range", fmt.Sprintf("[%g, %g]", lo, hi)))
	for _, bw := range []density.Bandwidth{density.Scott, density.Silverman} {
		h, err := density.KernelWidth(sample, bw)
		if err != nil {
			return err
		}
		fmt.Println(console.KeyValue(bw.String()+" h", fmt.Sprintf("%.6g", h)))
	}

	hist, err := density.BuildHistogram(sample, est.Default())
	if err != nil {
		return err
	}
	counts := make([]float64, len(hist.Counts))
	for i, c := range hist.Counts {
		counts[i] = float64(c)
	}
	fmt.Println(console.KeyValue("histogram", console.Sparkline(counts, len(counts))))
	return nil
}

func previewTable(cmd *cobra.Command, args []string) error {
	doc, err := xvg.Read(args[0])
	if err != nil {
		return err
	}
	if len(doc.Points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	ys := make([]float64, len(doc.Points))
	for i, p := range doc.Points {
		ys[i] = p.Y
	}

	fmt.Println(console.Title.Render(doc.Title))
	fmt.Println(console.KeyValue("x", fmt.Sprintf("%s [%g, %g]", doc.XLabel, doc.Points[0].X, doc.Points[len(doc.Points)-1].X)))
	fmt.Println(console.KeyValue("points", strconv.Itoa(len(doc.Points))))
	fmt.Println()

	graph := asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(doc.YLabel),
	)
	fmt.Println(graph)
	return nil
}

func listSeries(cmd *cobra.Command, args []string) error {
	root := filepath.Join(workDir, storage.DefaultRoot)
	if len(args) > 0 {
		root = args[0]
	}

	ids, err := storage.List(root)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no archived series found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tKIND\tBINS\tBANDWIDTH\tFILES")
	for _, id := range ids {
		dir := filepath.Join(root, id)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		binCol, bwCol := "-", "-"
		if p, err := params.ReadFile(filepath.Join(dir, params.FileFor(id)), id); err == nil {
			binCol, bwCol = strconv.Itoa(p.BinCount), p.Bandwidth.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", id, labels.KindOf(id), binCol, bwCol, len(entries))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if m, err := manifest.Load(filepath.Join(root, manifest.DefaultFile)); err == nil {
		fmt.Println()
		fmt.Println(console.KeyValue("dataset", m.DisplayName))
		fmt.Println(console.KeyValue("mode", m.Mode.String()))
	}
	return nil
}
