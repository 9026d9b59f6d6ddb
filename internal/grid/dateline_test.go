package grid

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func TestWrapLongitudes(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{in: 190, want: -170},
		{in: 180, want: 180}, // boundary rule is "> 180", not ">="
		{in: 360, want: 0},
		{in: 0, want: 0},
		{in: 179.5, want: 179.5},
		{in: 180.5, want: -179.5},
	}
	for _, c := range cases {
		if got := WrapLongitude(c.in); got != c.want {
			t.Errorf("WrapLongitude(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	got := WrapLongitudes([]float64{190, 180, 360})
	want := []float64{-170, 180, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("WrapLongitudes = %v, want %v", got, want)
		}
	}
}

func TestPartitionValidate(t *testing.T) {
	ok := Partition{High: []int{2, 3}, Low: []int{0, 1}}
	if err := ok.Validate(4); err != nil {
		t.Fatalf("valid partition rejected: %v", err)
	}
	cases := map[string]Partition{
		"missing index": {High: []int{2}, Low: []int{0, 1}},
		"duplicate":     {High: []int{1, 2}, Low: []int{0, 1}},
		"out of range":  {High: []int{2, 4}, Low: []int{0, 1}},
	}
	for name, p := range cases {
		if err := p.Validate(4); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestReorderLonBlocksInvolution(t *testing.T) {
	// 2 lats x 4 lons x 2 depths with distinct values
	field := sparse.ZerosDense(2, 4, 2)
	for i := range field.Elements {
		field.Elements[i] = float64(i)
	}

	p := Partition{High: []int{2, 3}, Low: []int{0, 1}}
	rolled, err := p.ReorderLonBlocks(field, 1)
	if err != nil {
		t.Fatal(err)
	}
	// column 0 of the rolled view is source column 2
	if got, want := rolled.Get(0, 0, 0), field.Get(0, 2, 0); got != want {
		t.Fatalf("rolled(0,0,0) = %v, want %v", got, want)
	}

	// a half rotation applied twice restores the original column order
	back, err := p.ReorderLonBlocks(rolled, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range field.Elements {
		if back.Elements[i] != field.Elements[i] {
			t.Fatalf("involution broken at element %d: %v != %v", i, back.Elements[i], field.Elements[i])
		}
	}
}

func TestReorderAxis(t *testing.T) {
	p := Partition{High: []int{2, 3}, Low: []int{0, 1}}
	got, err := p.ReorderAxis([]float64{0, 90, 180, 270})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{180, 270, 0, 90}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReorderAxis = %v, want %v", got, want)
		}
	}
}

func TestGridReindexAntimeridian(t *testing.T) {
	g, err := New([]float64{0, 90, 180, 270}, []float64{-10, 10}, []float64{5, 50})
	if err != nil {
		t.Fatal(err)
	}
	rg, err := g.Reindex(AntimeridianPartition(g.Lons))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-180, -90, 0, 90}
	for i := range want {
		if rg.Lons[i] != want[i] {
			t.Fatalf("reindexed lons = %v, want %v", rg.Lons, want)
		}
	}
	// meshes follow the axis rotation and wrap
	if got := rg.LonMesh.Get(0, 0, 0); got != -180 {
		t.Fatalf("reindexed LonMesh(0,0,0) = %v, want -180", got)
	}
	// receiver untouched
	if g.Lons[0] != 0 || g.LonMesh.Get(0, 0, 0) != 0 {
		t.Fatalf("Reindex mutated the source grid")
	}
	if math.IsNaN(rg.LatMesh.Get(0, 0, 0)) {
		t.Fatalf("reindexed LatMesh corrupted")
	}
}
