package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/pelagic-data/section.report/internal/section"
)

func testSection() *section.Section {
	vals := sparse.ZerosDense(3, 2)
	for i := range vals.Elements {
		vals.Elements[i] = float64(i)
	}
	vals.Elements[5] = math.NaN()
	return &section.Section{
		Positions: []float64{0, 10, 20},
		Depths:    []float64{5, 100},
		Values:    vals,
	}
}

func TestSectionPNGWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sec.png")
	if err := SectionPNG(testSection(), "test section", path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatalf("empty PNG written")
	}
}

func TestSectionHTMLWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sec.html")
	if err := SectionHTML(testSection(), "test section", path); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) == 0 {
		t.Fatalf("empty HTML written")
	}
}

func TestRenderNilSection(t *testing.T) {
	if err := SectionPNG(nil, "x", "out.png"); err == nil {
		t.Fatalf("expected error for nil section")
	}
	if err := SectionHTML(nil, "x", "out.html"); err == nil {
		t.Fatalf("expected error for nil section")
	}
}

func TestFiniteRange(t *testing.T) {
	lo, hi, ok := finiteRange([]float64{math.NaN(), 2, -1, math.Inf(1)})
	if !ok || lo != -1 || hi != 2 {
		t.Fatalf("finiteRange = (%v,%v,%v), want (-1,2,true)", lo, hi, ok)
	}
	if _, _, ok := finiteRange([]float64{math.NaN()}); ok {
		t.Fatalf("all-NaN input reported a range")
	}
}
