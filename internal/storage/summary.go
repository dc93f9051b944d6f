package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/chapkde/internal/density"
)

const (
	// SummaryFile is the run-level bin summary.
	SummaryFile = "kde_bins_estimated_summary.dat"

	rule = "----------------------------------"
)

// SummaryFileFor returns the per-series bin summary name.
func SummaryFileFor(id string) string {
	return "kde_bins_estimated_" + id + ".dat"
}

// FormatBinSummary renders the bin estimates of one series as a
// fixed-width table with the default rule flagged "(*)".
func FormatBinSummary(id string, est density.BinEstimate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=> %s\n", id)
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "%-18s| %s\n", "Binning Method", "Number of bins")
	sb.WriteString("------------------+---------------\n")
	fmt.Fprintf(&sb, "%-18s| %-6d(*)\n", "Freedman-Diaconis", est.FreedmanDiaconis)
	fmt.Fprintf(&sb, "%-18s| %d\n", "Square root", est.Sqrt)
	fmt.Fprintf(&sb, "%-18s| %d\n", "Rice", est.Rice)
	fmt.Fprintf(&sb, "%-18s| %d\n", "Scott", est.Scott)
	sb.WriteString(rule + "\n\n\n")
	return sb.String()
}

// SummaryLog writes bin summaries: one fragment per series plus the
// run-level file, which is truncated on the first write of a run and
// appended to afterwards.
type SummaryLog struct {
	dir        string
	firstWrite bool
}

func NewSummaryLog(dir string) *SummaryLog {
	return &SummaryLog{dir: dir, firstWrite: true}
}

// AggregatePath returns the run-level summary path.
func (l *SummaryLog) AggregatePath() string {
	return filepath.Join(l.dir, SummaryFile)
}

// Write records the estimates of a series and returns the path of the
// per-series fragment.
func (l *SummaryLog) Write(id string, est density.BinEstimate) (string, error) {
	text := []byte(FormatBinSummary(id, est))

	fragment := filepath.Join(l.dir, SummaryFileFor(id))
	if err := WriteFileAtomic(fragment, text, 0644); err != nil {
		return "", err
	}

	var err error
	if l.firstWrite {
		err = WriteFileAtomic(l.AggregatePath(), text, 0644)
	} else {
		err = AppendFileAtomic(l.AggregatePath(), text, 0644)
	}
	if err != nil {
		return "", err
	}
	l.firstWrite = false
	return fragment, nil
}
