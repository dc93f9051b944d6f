package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/gate"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/params"
	"github.com/san-kum/chapkde/internal/pipeline"
	"github.com/san-kum/chapkde/internal/render"
	"github.com/san-kum/chapkde/internal/series"
	"github.com/san-kum/chapkde/internal/storage"
	"github.com/san-kum/chapkde/internal/xvg"
)

func writeManifest(dir, mode string, ids ...string) {
	var sb strings.Builder
	if mode != "" {
		sb.WriteString("CHAPERONg auto mode," + mode + "\n\n")
	}
	sb.WriteString("Dataset name: Lysozyme\n")
	sb.WriteString(strings.Join(ids, "\n") + "\n")
	Expect(os.WriteFile(filepath.Join(dir, manifest.DefaultFile), []byte(sb.String()), 0644)).To(Succeed())
}

func writeSample(dir, id string, values []float64) {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64) + "\n")
	}
	Expect(os.WriteFile(series.Path(dir, id), []byte(sb.String()), 0644)).To(Succeed())
}

func spread(n int) []float64 {
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = 0.1 + 0.01*float64(i%17) + 0.002*float64(i)
	}
	return vs
}

func entries(dir string) []string {
	des, err := os.ReadDir(dir)
	Expect(err).NotTo(HaveOccurred())
	names := make([]string, len(des))
	for i, de := range des {
		names[i] = de.Name()
	}
	return names
}

func runnerFor(dir string, prompter gate.Prompter) *pipeline.Runner {
	opts := pipeline.DefaultOptions()
	opts.WorkDir = dir
	return pipeline.New(opts, render.NewPNG(render.Options{WidthIn: 3, HeightIn: 2, DPI: 30}), prompter, nil)
}

// editingPrompter rewrites the aggregate parameter file before proceeding,
// the way an operator would between proposal and confirmation.
type editingPrompter struct {
	bins      int
	bandwidth string
}

func (e editingPrompter) Confirm(ctx context.Context, p gate.Prompt) (bool, error) {
	edited := p.Proposed
	edited.BinCount = e.bins
	if e.bandwidth != "" {
		edited.Bandwidth = density.NamedBandwidth(e.bandwidth)
	}
	var buf bytes.Buffer
	if err := params.Encode(&buf, p.Series, edited); err != nil {
		return false, err
	}
	return true, os.WriteFile(p.ParamFile, buf.Bytes(), 0644)
}

type stageRecorder struct {
	stages []string
	done   []string
}

func (s *stageRecorder) OnStage(id, stage string) { s.stages = append(s.stages, id+":"+stage) }
func (s *stageRecorder) OnSeries(res pipeline.SeriesResult) {
	s.done = append(s.done, res.Series)
}

var _ = Describe("Runner", func() {
	var (
		dir string
		ctx context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		ctx = context.Background()
	})

	Context("in full mode", func() {
		BeforeEach(func() {
			writeManifest(dir, "full", "RMSD")
			writeSample(dir, "RMSD", spread(60))
		})

		It("archives exactly the seven series artifacts", func() {
			res, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Mode).To(Equal(manifest.ModeFull))
			Expect(res.Series).To(HaveLen(1))

			seriesDir := filepath.Join(dir, storage.DefaultRoot, "RMSD")
			Expect(entries(seriesDir)).To(ConsistOf(
				"CHAP_kde_Par_RMSD.in",
				"kde_bins_estimated_RMSD.dat",
				"RMSD_histogram.xvg",
				"RMSD_histogram.png",
				"RMSD_KDEdata.xvg",
				"RMSD_KDE_plot.png",
				"RMSD_Data.dat",
			))
			Expect(res.Series[0].Archived).To(HaveLen(7))
			Expect(res.Series[0].Decision.State).To(Equal(gate.Committed))
		})

		It("moves the run-level files into the root", func() {
			res, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(entries(res.Root)).To(ConsistOf(
				"RMSD",
				params.AggregateFile,
				storage.SummaryFile,
				manifest.DefaultFile,
			))
			Expect(filepath.Join(dir, series.FileName("RMSD"))).NotTo(BeAnExistingFile())
		})

		It("writes tables built with the committed parameters", func() {
			res, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			bins := res.Series[0].Estimate.FreedmanDiaconis
			hist, err := xvg.Read(filepath.Join(res.Root, "RMSD", xvg.HistogramFile("RMSD")))
			Expect(err).NotTo(HaveOccurred())
			Expect(hist.Points).To(HaveLen(bins))
			Expect(hist.Legend).To(Equal("Lysozyme_RMSD"))

			total := 0.0
			for _, p := range hist.Points {
				total += p.Y
			}
			Expect(total).To(BeNumerically("==", 60))

			kde, err := xvg.Read(filepath.Join(res.Root, "RMSD", xvg.KDEFile("RMSD")))
			Expect(err).NotTo(HaveOccurred())
			Expect(kde.Points).To(HaveLen(density.DefaultGridPoints))

			p, err := params.ReadFile(filepath.Join(res.Root, "RMSD", params.FileFor("RMSD")), "RMSD")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.BinCount).To(Equal(bins))
			Expect(p.Bandwidth).To(Equal(density.Silverman))
		})

		It("applies in-memory overrides before committing", func() {
			opts := pipeline.DefaultOptions()
			opts.WorkDir = dir
			bins := 4
			bw := density.FixedBandwidth(0.05)
			opts.BinCount, opts.Bandwidth = &bins, &bw

			res, err := pipeline.New(opts, render.Discard{}, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Series[0].Decision.Params).To(Equal(params.Parameters{BinCount: 4, Bandwidth: bw}))
			Expect(res.Series[0].KernelWidth).To(Equal(0.05))

			hist, err := xvg.Read(filepath.Join(res.Root, "RMSD", xvg.HistogramFile("RMSD")))
			Expect(err).NotTo(HaveOccurred())
			Expect(hist.Points).To(HaveLen(4))
		})

		It("backs up the previous output on a second run", func() {
			first, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Backup).To(BeEmpty())

			writeManifest(dir, "full", "RMSD")
			writeSample(dir, "RMSD", spread(40))
			second, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			backup := filepath.Join(dir, storage.DefaultRoot+".backup.1")
			Expect(second.Backup).To(Equal(backup))
			Expect(filepath.Join(backup, "RMSD", "RMSD_histogram.xvg")).To(BeAnExistingFile())
			Expect(filepath.Join(second.Root, "RMSD", "RMSD_histogram.xvg")).To(BeAnExistingFile())
		})

		It("reports progress to observers", func() {
			rec := &stageRecorder{}
			r := runnerFor(dir, nil)
			r.AddObserver(rec)

			_, err := r.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.stages).To(Equal([]string{
				"RMSD:load", "RMSD:bins", "RMSD:gate", "RMSD:histogram", "RMSD:kde", "RMSD:archive",
			}))
			Expect(rec.done).To(Equal([]string{"RMSD"}))
		})
	})

	Context("in semi mode", func() {
		BeforeEach(func() {
			writeManifest(dir, "semi", "Rg", "SASA")
			writeSample(dir, "Rg", spread(50))
			writeSample(dir, "SASA", spread(30))
		})

		It("stops before the histogram when the operator answers no", func() {
			prompter := gate.NewLinePrompter(strings.NewReader("2\n"), GinkgoWriter)

			res, err := runnerFor(dir, prompter).Run(ctx)
			Expect(err).To(MatchError(density.ErrUserAbort))
			Expect(res.Series).To(BeEmpty())

			Expect(filepath.Join(dir, params.FileFor("Rg"))).To(BeAnExistingFile())
			for _, name := range []string{
				xvg.HistogramFile("Rg"), xvg.KDEFile("Rg"),
				render.HistogramImage("Rg"), render.DensityImage("Rg"),
			} {
				Expect(filepath.Join(dir, name)).NotTo(BeAnExistingFile())
			}
			Expect(filepath.Join(dir, storage.DefaultRoot, "Rg")).NotTo(BeADirectory())
			Expect(filepath.Join(dir, series.FileName("SASA"))).To(BeAnExistingFile())
		})

		It("commits parameters edited before confirmation", func() {
			res, err := runnerFor(dir, editingPrompter{bins: 5}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Series).To(HaveLen(2))

			for _, sr := range res.Series {
				Expect(sr.Decision.Params.BinCount).To(Equal(5))
				hist, err := xvg.Read(filepath.Join(res.Root, sr.Series, xvg.HistogramFile(sr.Series)))
				Expect(err).NotTo(HaveOccurred())
				Expect(hist.Points).To(HaveLen(5))
			}
		})

		It("rejects an unknown bandwidth rule before writing the histogram", func() {
			res, err := runnerFor(dir, editingPrompter{bins: 5, bandwidth: "normal"}).Run(ctx)
			Expect(err).To(MatchError(density.ErrUnknownBandwidth))
			Expect(res.Series).To(BeEmpty())

			var estErr *density.EstimationError
			Expect(errors.As(err, &estErr)).To(BeTrue())
			Expect(estErr.Series).To(Equal("Rg"))

			for _, name := range []string{
				xvg.HistogramFile("Rg"), xvg.KDEFile("Rg"),
				render.HistogramImage("Rg"), render.DensityImage("Rg"),
			} {
				Expect(filepath.Join(dir, name)).NotTo(BeAnExistingFile())
			}
			Expect(filepath.Join(dir, storage.DefaultRoot, "Rg")).NotTo(BeADirectory())
		})

		It("can be forced to full mode", func() {
			opts := pipeline.DefaultOptions()
			opts.WorkDir = dir
			full := manifest.ModeFull
			opts.Mode = &full

			res, err := pipeline.New(opts, render.Discard{}, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Mode).To(Equal(manifest.ModeFull))
			Expect(res.Series).To(HaveLen(2))
		})
	})

	Context("with bad inputs", func() {
		It("fails before touching the output root when a sample is missing", func() {
			writeManifest(dir, "full", "RMSD", "Hbond")
			writeSample(dir, "RMSD", spread(20))

			_, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).To(MatchError(density.ErrMissingFile))
			Expect(filepath.Join(dir, storage.DefaultRoot)).NotTo(BeADirectory())
		})

		It("requires a renderer", func() {
			writeManifest(dir, "full", "RMSD")
			_, err := pipeline.New(pipeline.Options{WorkDir: dir}, nil, nil, nil).Run(ctx)
			Expect(err).To(MatchError(density.ErrMissingDependency))
		})

		It("rejects a degenerate sample", func() {
			writeManifest(dir, "full", "Hbond")
			writeSample(dir, "Hbond", []float64{3, 3, 3, 3})

			_, err := runnerFor(dir, nil).Run(ctx)
			Expect(err).To(MatchError(density.ErrDegenerateSample))

			var estErr *density.EstimationError
			Expect(err).To(BeAssignableToTypeOf(estErr))
		})

		It("stops when the context is canceled", func() {
			writeManifest(dir, "full", "RMSD")
			writeSample(dir, "RMSD", spread(20))
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := runnerFor(dir, nil).Run(canceled)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
