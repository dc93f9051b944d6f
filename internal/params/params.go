// Package params holds the per-series binning and bandwidth parameters
// and their line-oriented "key,value" file format.
package params

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/chapkde/internal/density"
)

const (
	KeyBinCount  = "bin_count"
	KeyBandwidth = "bandwidth_method"
)

// Parameters are the values the histogram and KDE of one series are built with.
type Parameters struct {
	BinCount  int
	Bandwidth density.Bandwidth
}

// Defaults proposes the Freedman-Diaconis bin count and the given bandwidth.
func Defaults(est density.BinEstimate, bw density.Bandwidth) Parameters {
	return Parameters{BinCount: est.Default(), Bandwidth: bw}
}

func (p Parameters) Validate() error {
	if p.BinCount < 1 {
		return fmt.Errorf("bin_count must be >= 1, got %d: %w", p.BinCount, density.ErrParse)
	}
	return p.Bandwidth.Validate()
}

// Override replaces the bin count and/or bandwidth. Nil arguments keep the
// current value. The receiver is left unchanged when the result is invalid.
func (p *Parameters) Override(binCount *int, bandwidth *density.Bandwidth) error {
	next := *p
	if binCount != nil {
		next.BinCount = *binCount
	}
	if bandwidth != nil {
		next.Bandwidth = *bandwidth
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Record is one parameter block of a parameter file.
type Record struct {
	Series string
	Parameters
}

// Encode writes one record: the series name, the two key,value lines and
// a blank-line separator.
func Encode(w io.Writer, series string, p Parameters) error {
	_, err := fmt.Fprintf(w, "%s\n%s,%d\n%s,%s\n\n\n", series, KeyBinCount, p.BinCount, KeyBandwidth, p.Bandwidth)
	return err
}

// Decode reads every record of a parameter file. A non-blank line without
// a comma starts a new record named by that line; unknown keys are ignored.
func Decode(r io.Reader) ([]Record, error) {
	type partial struct {
		rec          Record
		hasBins      bool
		hasBandwidth bool
	}

	var (
		parts []*partial
		cur   *partial
	)
	start := func(name string) {
		cur = &partial{rec: Record{Series: name}}
		parts = append(parts, cur)
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ",")
		if !ok {
			start(line)
			continue
		}
		if cur == nil {
			start("")
		}

		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case KeyBinCount:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: bin_count %q: %w", lineNo, value, density.ErrParse)
			}
			cur.rec.BinCount = n
			cur.hasBins = true
		case KeyBandwidth:
			bw, err := density.ParseBandwidth(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur.rec.Bandwidth = bw
			cur.hasBandwidth = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(parts))
	for _, p := range parts {
		if !p.hasBins || !p.hasBandwidth {
			return nil, fmt.Errorf("record %q: missing %s or %s: %w", p.rec.Series, KeyBinCount, KeyBandwidth, density.ErrParse)
		}
		if err := p.rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %q: %w", p.rec.Series, err)
		}
		records = append(records, p.rec)
	}
	return records, nil
}

// Find returns the record of a series. A file holding a single unnamed
// record matches any series.
func Find(records []Record, series string) (Parameters, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Series == series {
			return records[i].Parameters, true
		}
	}
	if len(records) == 1 && records[0].Series == "" {
		return records[0].Parameters, true
	}
	return Parameters{}, false
}
