// Package xvg reads and writes the xmgrace-style tables produced for each
// series: a metadata header followed by tab-separated (x, y) rows.
package xvg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/labels"
	"github.com/san-kum/chapkde/internal/storage"
)

const (
	TypeBar = "bar"
	TypeXY  = "xy"
)

// Document is one table with its plot metadata.
type Document struct {
	Comments []string
	Title    string
	XLabel   string
	YLabel   string
	Type     string
	Legend   string
	// Settings are extra "@    s0 ..." directives written after the legend.
	Settings []string
	Points   []density.Point
}

// HistogramFile and KDEFile return the table names of a series.
func HistogramFile(series string) string { return series + "_histogram.xvg" }
func KDEFile(series string) string       { return series + "_KDEdata.xvg" }

// Histogram builds the count-histogram table of a series.
func Histogram(series, dataset string, label labels.Label, pts []density.Point) Document {
	return Document{
		Comments: header("histogram", series),
		Title:    "Histogram of " + series,
		XLabel:   label.XVG,
		YLabel:   "Count",
		Type:     TypeBar,
		Legend:   dataset + "_" + series,
		Settings: []string{"s0 symbol size 0.200000", "s0 line type 0"},
		Points:   pts,
	}
}

// KDE builds the density-curve table of a series.
func KDE(series, dataset string, label labels.Label, pts []density.Point) Document {
	return Document{
		Comments: header("KDE-estimated PDF", series),
		Title:    "KDE-estimated Probability Density of " + series,
		XLabel:   label.XVG,
		YLabel:   "Density",
		Type:     TypeXY,
		Legend:   dataset + "_" + series,
		Points:   pts,
	}
}

func header(content, series string) []string {
	return []string{
		fmt.Sprintf("This file contains the %s values of the %s", content, series),
		"data calculated by chapkde from the output of GROMACS",
		"",
	}
}

// Encode writes a document.
func Encode(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	for _, c := range doc.Comments {
		if c == "" {
			fmt.Fprintln(bw, "#")
			continue
		}
		fmt.Fprintf(bw, "# %s\n", c)
	}
	fmt.Fprintf(bw, "@    title \"%s\"\n", doc.Title)
	fmt.Fprintf(bw, "@    xaxis  label \"%s\"\n", doc.XLabel)
	fmt.Fprintf(bw, "@    yaxis  label \"%s\"\n", doc.YLabel)
	fmt.Fprintf(bw, "@TYPE %s\n", doc.Type)
	fmt.Fprintf(bw, "@ s0 legend \"%s\"\n", doc.Legend)
	for _, s := range doc.Settings {
		fmt.Fprintf(bw, "@    %s\n", s)
	}
	for _, p := range doc.Points {
		fmt.Fprintf(bw, "%s\t%s\n", formatFloat(p.X), formatFloat(p.Y))
	}
	return bw.Flush()
}

// Write encodes a document and replaces path atomically.
func Write(path string, doc Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Read loads a document from path.
func Read(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("table %s: %w", path, density.ErrMissingFile)
		}
		return Document{}, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return Document{}, fmt.Errorf("table %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a document. Unknown directives are kept in Settings.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			doc.Comments = append(doc.Comments, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
		case strings.HasPrefix(trimmed, "@"):
			if err := decodeDirective(&doc, strings.TrimSpace(strings.TrimPrefix(trimmed, "@"))); err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
		default:
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return Document{}, fmt.Errorf("line %d: expected two columns: %w", lineNo, density.ErrParse)
			}
			x, errX := strconv.ParseFloat(fields[0], 64)
			y, errY := strconv.ParseFloat(fields[1], 64)
			if errX != nil || errY != nil {
				return Document{}, fmt.Errorf("line %d: non-numeric row: %w", lineNo, density.ErrParse)
			}
			doc.Points = append(doc.Points, density.Point{X: x, Y: y})
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func decodeDirective(doc *Document, d string) error {
	switch {
	case strings.HasPrefix(d, "TYPE "):
		doc.Type = strings.TrimSpace(strings.TrimPrefix(d, "TYPE "))
	case strings.HasPrefix(d, "title "):
		return unquote(&doc.Title, strings.TrimPrefix(d, "title "))
	case strings.HasPrefix(d, "xaxis"):
		return unquote(&doc.XLabel, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(d, "xaxis")), "label")))
	case strings.HasPrefix(d, "yaxis"):
		return unquote(&doc.YLabel, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(d, "yaxis")), "label")))
	case strings.HasPrefix(d, "s0 legend "):
		return unquote(&doc.Legend, strings.TrimPrefix(d, "s0 legend "))
	default:
		doc.Settings = append(doc.Settings, d)
	}
	return nil
}

// unquote strips the double quotes around an xmgrace string. Backslashes
// are xmgrace escapes and are kept verbatim.
func unquote(dst *string, s string) error {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("bad quoted value %s: %w", s, density.ErrParse)
	}
	*dst = s[1 : len(s)-1]
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
