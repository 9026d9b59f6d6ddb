package grid

import (
	"math"
	"testing"
)

func TestNewValidatesAxes(t *testing.T) {
	if _, err := New([]float64{0, 1, 2}, []float64{10, 20}, []float64{5, 10, 20}); err != nil {
		t.Fatalf("valid axes rejected: %v", err)
	}
	if _, err := New([]float64{0, 2, 1}, []float64{10, 20}, []float64{5, 10}); err == nil {
		t.Fatalf("expected error for non-monotonic lon axis")
	}
	if _, err := New([]float64{0, 1}, []float64{10, 20}, []float64{5, 5}); err == nil {
		t.Fatalf("expected error for repeated depth level")
	}
	if _, err := New(nil, []float64{10}, []float64{5}); err == nil {
		t.Fatalf("expected error for empty lon axis")
	}
	if _, err := New([]float64{math.NaN(), 1, 2}, []float64{10, 20}, []float64{5, 10}); err == nil {
		t.Fatalf("expected error for NaN leading the lon axis")
	}
	if _, err := New([]float64{math.NaN()}, []float64{10}, []float64{5}); err == nil {
		t.Fatalf("expected error for single-element NaN axis")
	}
}

func TestMeshesHoldCellCoordinates(t *testing.T) {
	g, err := New([]float64{0, 10, 20}, []float64{-5, 5}, []float64{100, 200})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.LonMesh.Get(1, 2, 0); got != 20 {
		t.Fatalf("LonMesh(1,2,0) = %v, want 20", got)
	}
	if got := g.LatMesh.Get(0, 1, 1); got != -5 {
		t.Fatalf("LatMesh(0,1,1) = %v, want -5", got)
	}
	if got := g.DepthMesh.Get(1, 0, 1); got != 200 {
		t.Fatalf("DepthMesh(1,0,1) = %v, want 200", got)
	}
}

func TestCellIndexRoundTrip(t *testing.T) {
	g, err := New([]float64{0, 10, 20, 30}, []float64{-5, 0, 5}, []float64{100, 200})
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < g.Ny(); row++ {
		for col := 0; col < g.Nx(); col++ {
			for level := 0; level < g.Nz(); level++ {
				idx := g.CellIndex(row, col, level)
				r, c, k := g.CellAt(idx)
				if r != row || c != col || k != level {
					t.Fatalf("CellAt(CellIndex(%d,%d,%d)) = (%d,%d,%d)", row, col, level, r, c, k)
				}
				// flat index must agree with the mesh element layout
				if got := g.LonMesh.Elements[idx]; got != g.Lons[col] {
					t.Fatalf("flat index %d disagrees with mesh layout", idx)
				}
			}
		}
	}
}

func TestNearestIndex(t *testing.T) {
	axis := []float64{10, 20, 40, 80}
	cases := []struct {
		v    float64
		want int
	}{
		{v: 5, want: 0},   // clamp below
		{v: 10, want: 0},  // exact
		{v: 14, want: 0},  // nearer left
		{v: 16, want: 1},  // nearer right
		{v: 30, want: 1},  // ties break left
		{v: 79, want: 3},  // nearer right
		{v: 500, want: 3}, // clamp above
	}
	for _, c := range cases {
		if got := NearestIndex(axis, c.v); got != c.want {
			t.Errorf("NearestIndex(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestWithOceanShapeCheck(t *testing.T) {
	g, err := New([]float64{0, 10}, []float64{-5, 0, 5}, []float64{100})
	if err != nil {
		t.Fatal(err)
	}
	bad, _ := New([]float64{0, 10, 20}, []float64{-5, 0, 5}, []float64{100})
	// a 3-D array is never a valid surface template
	if _, err := g.WithOcean(bad.LonMesh); err == nil {
		t.Fatalf("expected shape error for 3-D ocean template")
	}
	if got := g.OceanAt(0, 0); got != 1 {
		t.Fatalf("OceanAt without template = %v, want 1", got)
	}
}
