package params

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/storage"
)

// AggregateFile is the run-level parameter file the operator may edit.
const AggregateFile = "CHAP_kde_Par.in"

// FileFor returns the per-series parameter file name.
func FileFor(series string) string {
	return "CHAP_kde_Par_" + series + ".in"
}

// Store persists parameters to a per-series file and to the aggregate
// file. The aggregate is truncated by the first write of a run and
// appended to afterwards.
type Store struct {
	dir        string
	firstWrite bool
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, firstWrite: true}
}

func (s *Store) AggregatePath() string {
	return filepath.Join(s.dir, AggregateFile)
}

func (s *Store) PathFor(series string) string {
	return filepath.Join(s.dir, FileFor(series))
}

// WriteDefaults records the proposed parameters of a series and returns
// the per-series file path.
func (s *Store) WriteDefaults(series string, p Parameters) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, series, p); err != nil {
		return "", err
	}

	path := s.PathFor(series)
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	var err error
	if s.firstWrite {
		err = storage.WriteFileAtomic(s.AggregatePath(), buf.Bytes(), 0644)
	} else {
		err = storage.AppendFileAtomic(s.AggregatePath(), buf.Bytes(), 0644)
	}
	if err != nil {
		return "", err
	}
	s.firstWrite = false
	return path, nil
}

// ReadBack re-parses the aggregate file, which may have been edited since
// WriteDefaults, and returns the record of the series.
func (s *Store) ReadBack(series string) (Parameters, error) {
	return ReadFile(s.AggregatePath(), series)
}

// Commit rewrites the per-series file with the parameters actually used.
func (s *Store) Commit(series string, p Parameters) error {
	var buf bytes.Buffer
	if err := Encode(&buf, series, p); err != nil {
		return err
	}
	return storage.WriteFileAtomic(s.PathFor(series), buf.Bytes(), 0644)
}

// ReadFile loads the record of a series from a parameter file.
func ReadFile(path, series string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Parameters{}, fmt.Errorf("parameters %s: %w", path, density.ErrMissingFile)
		}
		return Parameters{}, err
	}

	records, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Parameters{}, fmt.Errorf("parameters %s: %w", path, err)
	}
	p, ok := Find(records, series)
	if !ok {
		return Parameters{}, fmt.Errorf("parameters %s: no record for %q: %w", path, series, density.ErrParse)
	}
	return p, nil
}
