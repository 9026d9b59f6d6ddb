package grid

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Grid is a structured lat/lon/depth grid with full coordinate meshes.
// Lons spans a half-open cyclic domain (commonly [0,360)). Depths is the
// reference depth axis, assumed identical across all horizontal positions.
// The meshes carry one coordinate triple per cell so that the horizontal
// layout may in principle vary by depth level.
type Grid struct {
	Lons   []float64
	Lats   []float64
	Depths []float64

	// Coordinate meshes, shape ny×nx×nz (lat, lon, depth order).
	LonMesh   *sparse.DenseArray
	LatMesh   *sparse.DenseArray
	DepthMesh *sparse.DenseArray

	// Ocean is the surface validity template, shape ny×nx: 1 over water,
	// NaN over land. Nil means every horizontal position is valid.
	Ocean *sparse.DenseArray
}

// New builds a Grid from its three axes, expanding the coordinate meshes.
// All axes must be strictly increasing; a malformed axis is a
// configuration error.
func New(lons, lats, depths []float64) (*Grid, error) {
	if len(lons) == 0 || len(lats) == 0 || len(depths) == 0 {
		return nil, fmt.Errorf("grid: empty axis (nx=%d ny=%d nz=%d)", len(lons), len(lats), len(depths))
	}
	for name, axis := range map[string][]float64{"lon": lons, "lat": lats, "depth": depths} {
		if err := checkMonotonic(name, axis); err != nil {
			return nil, err
		}
	}

	ny, nx, nz := len(lats), len(lons), len(depths)
	g := &Grid{
		Lons:      lons,
		Lats:      lats,
		Depths:    depths,
		LonMesh:   sparse.ZerosDense(ny, nx, nz),
		LatMesh:   sparse.ZerosDense(ny, nx, nz),
		DepthMesh: sparse.ZerosDense(ny, nx, nz),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for k := 0; k < nz; k++ {
				g.LonMesh.Set(lons[i], j, i, k)
				g.LatMesh.Set(lats[j], j, i, k)
				g.DepthMesh.Set(depths[k], j, i, k)
			}
		}
	}
	return g, nil
}

// Regular builds a Grid with evenly spaced horizontal axes and an
// explicit depth axis.
func Regular(lon0, dlon float64, nx int, lat0, dlat float64, ny int, depths []float64) (*Grid, error) {
	if dlon <= 0 || dlat <= 0 || nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("grid: invalid regular spacing (dlon=%g dlat=%g nx=%d ny=%d)", dlon, dlat, nx, ny)
	}
	lons := make([]float64, nx)
	for i := range lons {
		lons[i] = lon0 + float64(i)*dlon
	}
	lats := make([]float64, ny)
	for j := range lats {
		lats[j] = lat0 + float64(j)*dlat
	}
	return New(lons, lats, depths)
}

// Ny returns the latitude dimension.
func (g *Grid) Ny() int { return len(g.Lats) }

// Nx returns the longitude dimension.
func (g *Grid) Nx() int { return len(g.Lons) }

// Nz returns the depth dimension.
func (g *Grid) Nz() int { return len(g.Depths) }

// CellIndex flattens a (row, col, level) triple into the mesh element
// index. It is the shared cell identity used by the binning operator.
func (g *Grid) CellIndex(row, col, level int) int {
	return (row*g.Nx()+col)*g.Nz() + level
}

// CellAt is the inverse of CellIndex.
func (g *Grid) CellAt(idx int) (row, col, level int) {
	level = idx % g.Nz()
	idx /= g.Nz()
	col = idx % g.Nx()
	row = idx / g.Nx()
	return row, col, level
}

// WithOcean attaches a surface validity template (1 = water, NaN = land)
// and returns the grid for chaining. The template shape must be ny×nx.
func (g *Grid) WithOcean(ocean *sparse.DenseArray) (*Grid, error) {
	if ocean != nil {
		if len(ocean.Shape) != 2 || ocean.Shape[0] != g.Ny() || ocean.Shape[1] != g.Nx() {
			return nil, fmt.Errorf("grid: ocean template shape %v does not match %dx%d", ocean.Shape, g.Ny(), g.Nx())
		}
	}
	g.Ocean = ocean
	return g, nil
}

// OceanAt reports the validity template value at a horizontal position.
// Without a template every position counts as water.
func (g *Grid) OceanAt(row, col int) float64 {
	if g.Ocean == nil {
		return 1
	}
	return g.Ocean.Get(row, col)
}

func checkMonotonic(name string, axis []float64) error {
	if len(axis) > 0 && math.IsNaN(axis[0]) {
		return fmt.Errorf("grid: %s axis is NaN at index 0", name)
	}
	for i := 1; i < len(axis); i++ {
		if math.IsNaN(axis[i]) || axis[i] <= axis[i-1] {
			return fmt.Errorf("grid: %s axis not strictly increasing at index %d (%g after %g)", name, i, axis[i], axis[i-1])
		}
	}
	return nil
}

// NearestIndex returns the index of the axis value closest to v. Values
// outside the axis range clamp to the first or last index. The axis must
// be strictly increasing.
func NearestIndex(axis []float64, v float64) int {
	n := len(axis)
	if v <= axis[0] {
		return 0
	}
	if v >= axis[n-1] {
		return n - 1
	}
	// binary search for the first element >= v
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if axis[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if v-axis[lo-1] <= axis[lo]-v {
		return lo - 1
	}
	return lo
}
