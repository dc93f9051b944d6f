// Package manifest reads the dataset list that names the series of a run
// and its mode of operation.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/chapkde/internal/density"
)

// DefaultFile is the manifest file name looked up in the working directory.
const DefaultFile = "CHAP_kde_dataset_list.dat"

// Mode selects how the decision gate commits proposed parameters.
type Mode int

const (
	// ModeLegacy always asks, used by manifests without a mode line.
	ModeLegacy Mode = iota
	// ModeFull commits computed defaults without asking.
	ModeFull
	// ModeSemi asks once per series and allows edits before committing.
	ModeSemi
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSemi:
		return "semi"
	default:
		return "legacy"
	}
}

// ParseMode reads a mode token.
func ParseMode(token string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "full":
		return ModeFull, nil
	case "semi":
		return ModeSemi, nil
	case "legacy", "":
		return ModeLegacy, nil
	default:
		return ModeLegacy, fmt.Errorf("unknown mode %q: %w", token, density.ErrParse)
	}
}

type Manifest struct {
	Mode        Mode
	DisplayName string
	Series      []string
}

const modeMarker = "auto mode"

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("manifest %s: %w", path, density.ErrMissingFile)
		}
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse reads a manifest. When the first line carries "auto mode,<mode>",
// the display name is on line 2 and series start at line 3; otherwise the
// display name is on line 0, series start at line 1 and the mode is legacy.
// The display name is the third space-separated token of its line.
func Parse(r io.Reader) (*Manifest, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty manifest: %w", density.ErrParse)
	}

	m := &Manifest{Mode: ModeLegacy}
	nameLine, first := 0, 1
	if strings.Contains(lines[0], modeMarker) {
		_, token, ok := strings.Cut(lines[0], ",")
		if !ok {
			return nil, fmt.Errorf("line 1: mode line without value: %w", density.ErrParse)
		}
		mode, err := ParseMode(token)
		if err != nil {
			return nil, fmt.Errorf("line 1: %w", err)
		}
		m.Mode = mode
		nameLine, first = 2, 3
	}

	if nameLine >= len(lines) {
		return nil, fmt.Errorf("missing dataset name line: %w", density.ErrParse)
	}
	fields := strings.Split(strings.TrimSpace(lines[nameLine]), " ")
	if len(fields) < 3 || fields[2] == "" {
		return nil, fmt.Errorf("line %d: no dataset name in %q: %w", nameLine+1, lines[nameLine], density.ErrParse)
	}
	m.DisplayName = fields[2]

	seen := make(map[string]bool)
	for i := first; i < len(lines); i++ {
		id := strings.TrimSpace(lines[i])
		if id == "" {
			continue
		}
		// Ids name files and archive directories.
		if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
			return nil, fmt.Errorf("line %d: series %q is not a plain name: %w", i+1, id, density.ErrParse)
		}
		if seen[id] {
			return nil, fmt.Errorf("line %d: duplicate series %q: %w", i+1, id, density.ErrParse)
		}
		seen[id] = true
		m.Series = append(m.Series, id)
	}
	if len(m.Series) == 0 {
		return nil, fmt.Errorf("no series listed: %w", density.ErrParse)
	}

	return m, nil
}
