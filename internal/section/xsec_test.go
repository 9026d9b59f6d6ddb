package section

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/pelagic-data/section.report/internal/grid"
)

func makeXsecGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(
		[]float64{0, 1, 2, 3}, // lons: along-track positions
		[]float64{10, 20},     // lats: transverse dimension
		[]float64{10, 20, 30, 40, 50},
	)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// fieldWith builds an all-sentinel field and sets the given cells.
func fieldWith(g *grid.Grid, cells map[[3]int]float64) *sparse.DenseArray {
	f := sparse.ZerosDense(g.Ny(), g.Nx(), g.Nz())
	for i := range f.Elements {
		f.Elements[i] = -9
	}
	for c, v := range cells {
		f.Set(v, c[0], c[1], c[2])
	}
	return f
}

func TestExtractTransverseAverageSkipsNegatives(t *testing.T) {
	g := makeXsecGrid(t)
	// position 0, level 0: one row holds 4, the other the sentinel
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 4,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Values.Get(0, 0); got != 4 {
		t.Fatalf("collapsed value = %v, want 4 (sentinel must not dilute the mean)", got)
	}
}

func TestExtractTransverseAverageOfTwoRows(t *testing.T) {
	g := makeXsecGrid(t)
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 4,
		{1, 0, 0}: 6,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Values.Get(0, 0); got != 5 {
		t.Fatalf("collapsed value = %v, want 5", got)
	}
}

func TestDepthGapFillNeedsThreeValidPoints(t *testing.T) {
	g := makeXsecGrid(t)
	// position 0 holds exactly 2 valid depth samples; nothing else valid
	// anywhere, so neither pass may interpolate this column.
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 2,
		{0, 0, 4}: 10,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Values.Get(0, 0); got != 2 {
		t.Fatalf("valid value modified: %v", got)
	}
	for k := 1; k < 4; k++ {
		if !math.IsNaN(sec.Values.Get(0, k)) {
			t.Fatalf("level %d filled from only 2 valid points: %v", k, sec.Values.Get(0, k))
		}
	}
}

func TestDepthGapFillInterpolatesWithThreePoints(t *testing.T) {
	g := makeXsecGrid(t)
	// levels 0, 2, 4 valid at position 0: the whole column fills
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 2,
		{0, 0, 2}: 6,
		{0, 0, 4}: 10,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	wantCol := []float64{2, 4, 6, 8, 10} // linear in depth 10..50
	for k, want := range wantCol {
		if got := sec.Values.Get(0, k); math.Abs(got-want) > 1e-12 {
			t.Fatalf("level %d = %v, want %v", k, got, want)
		}
	}
}

func TestDepthGapFillExtendsBoundaries(t *testing.T) {
	g := makeXsecGrid(t)
	// only interior levels 1..3 valid at position 0: the boundary levels
	// take the nearest valid value rather than staying missing
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 1}: 4,
		{0, 0, 2}: 6,
		{0, 0, 3}: 8,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Values.Get(0, 0); got != 4 {
		t.Fatalf("shallow boundary = %v, want 4 (nearest valid level)", got)
	}
	if got := sec.Values.Get(0, 4); got != 8 {
		t.Fatalf("deep boundary = %v, want 8 (nearest valid level)", got)
	}
}

func TestAlongTrackGapFill(t *testing.T) {
	g := makeXsecGrid(t)
	// level 0 valid at positions 0, 1, 3; position 2 interior gap fills
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 1,
		{0, 1, 0}: 2,
		{0, 3, 0}: 4,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	if got := sec.Values.Get(2, 0); math.Abs(got-3) > 1e-12 {
		t.Fatalf("interior track gap = %v, want 3", got)
	}
}

func TestResidualMissingValuesPersist(t *testing.T) {
	g := makeXsecGrid(t)
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 1,
		{0, 1, 0}: 2,
	})
	sec, err := Extract(f, g, AlongLongitude)
	if err != nil {
		t.Fatal(err)
	}
	// deepest level never met any fill threshold
	if !math.IsNaN(sec.Values.Get(0, 4)) {
		t.Fatalf("missing value fabricated at depth")
	}
}

func TestExtractAlongLatitude(t *testing.T) {
	g := makeXsecGrid(t)
	f := fieldWith(g, map[[3]int]float64{
		{0, 0, 0}: 3,
		{0, 1, 0}: 5,
	})
	sec, err := Extract(f, g, AlongLatitude)
	if err != nil {
		t.Fatal(err)
	}
	if len(sec.Positions) != g.Ny() {
		t.Fatalf("positions along latitude: got %d, want %d", len(sec.Positions), g.Ny())
	}
	// transverse (longitude) mean of 3 and 5
	if got := sec.Values.Get(0, 0); got != 4 {
		t.Fatalf("collapsed value = %v, want 4", got)
	}
}

func TestExtractShapeMismatch(t *testing.T) {
	g := makeXsecGrid(t)
	if _, err := Extract(sparse.ZerosDense(1, 2, 3), g, AlongLongitude); err == nil {
		t.Fatalf("expected shape error")
	}
}
