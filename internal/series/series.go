// Package series loads per-series sample files.
package series

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/chapkde/internal/density"
)

// FileName returns the sample file name of a series.
func FileName(id string) string {
	return id + "_Data.dat"
}

// Path returns the sample file of a series inside dir.
func Path(dir, id string) string {
	return filepath.Join(dir, FileName(id))
}

// Exists reports whether a sample file is present.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads a sample file with one value per line.
func Load(path string) (density.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sample %s: %w", path, density.ErrMissingFile)
		}
		return nil, err
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", path, err)
	}
	return s, nil
}

// Read parses one floating-point value per line. Blank lines are skipped.
func Read(r io.Reader) (density.Sample, error) {
	var s density.Sample
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a number: %w", lineNo, text, density.ErrParse)
		}
		s = append(s, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
