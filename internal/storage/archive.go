package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// DefaultRoot is the output directory created in the working directory.
const DefaultRoot = "Kernel_Density_Estimation"

// Archive owns the output root of a run and moves artifacts into it.
type Archive struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Archive{root: root, logger: logger}
}

func (a *Archive) Root() string {
	return a.root
}

// SeriesDir returns the directory that holds the artifacts of a series.
func (a *Archive) SeriesDir(id string) string {
	return filepath.Join(a.root, id)
}

// Prepare creates a fresh output root. An existing root is first renamed
// to the first unused <root>.backup.<k>; the backup path is returned, or
// "" when there was nothing to back up.
func (a *Archive) Prepare() (string, error) {
	var backup string
	if _, err := os.Stat(a.root); err == nil {
		backup, err = NextBackup(a.root)
		if err != nil {
			return "", err
		}
		if err := os.Rename(a.root, backup); err != nil {
			return "", fmt.Errorf("back up %s: %w", a.root, err)
		}
		a.logger.Info("backed up previous output", "from", a.root, "to", backup)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(a.root, 0755); err != nil {
		return "", err
	}
	return backup, nil
}

// NextBackup returns <root>.backup.<k> for the smallest k >= 1 not yet taken.
func NextBackup(root string) (string, error) {
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s.backup.%d", root, k)
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// ArchiveSeries moves the given files into <root>/<id>. Files that do not
// exist are skipped; the names actually moved are returned.
func (a *Archive) ArchiveSeries(id string, files []string) ([]string, error) {
	dir := a.SeriesDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return a.moveAll(dir, files)
}

// ArchiveRun moves run-level files into the root.
func (a *Archive) ArchiveRun(files []string) ([]string, error) {
	return a.moveAll(a.root, files)
}

func (a *Archive) moveAll(dir string, files []string) ([]string, error) {
	moved := make([]string, 0, len(files))
	var errs []error
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		err := Move(src, dst)
		switch {
		case err == nil:
			moved = append(moved, filepath.Base(src))
		case errors.Is(err, os.ErrNotExist):
			a.logger.Debug("artifact absent, skipped", "file", src)
		default:
			a.logger.Warn("artifact not archived", "file", src, "err", err)
			errs = append(errs, err)
		}
	}
	return moved, errors.Join(errs...)
}

// Move renames src to dst, falling back to copy and remove when a rename
// is not possible (for example across filesystems).
func Move(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Remove(src)
}

// List returns the series directories of an output root in sorted order.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
