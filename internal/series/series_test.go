package series

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/san-kum/chapkde/internal/density"
)

func TestRead(t *testing.T) {
	s, err := Read(strings.NewReader("0.12\n 0.34 \n\n1e-2\n"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(s) != 3 {
		t.Fatalf("expected 3 values, got %d", len(s))
	}
	if s[2] != 0.01 {
		t.Errorf("expected 0.01, got %f", s[2])
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"1.0\nabc\n", density.ErrParse},
		{"1.0\nNaN\n", density.ErrParse},
		{"", density.ErrDegenerateSample},
	}

	for _, tt := range tests {
		if _, err := Read(strings.NewReader(tt.in)); !errors.Is(err, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	if Exists(Path(dir, "RMSD")) || Exists(dir) {
		t.Error("expected no sample file")
	}
	_, err := Load(Path(dir, "RMSD"))
	if !errors.Is(err, density.ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}

	if err := os.WriteFile(Path(dir, "RMSD"), []byte("1\n2\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(Path(dir, "RMSD")) {
		t.Error("expected sample file")
	}
	s, err := Load(Path(dir, "RMSD"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(s) != 3 {
		t.Errorf("expected 3 values, got %d", len(s))
	}
	if FileName("RMSD") != "RMSD_Data.dat" {
		t.Errorf("unexpected file name %s", FileName("RMSD"))
	}
}
