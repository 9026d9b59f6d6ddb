package grid

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Partition splits the longitude axis index range into the block that
// leads the reindexed axis (High) and the block that trails it (Low).
// Reindexing concatenates the High-indexed columns before the Low-indexed
// ones, presenting a rotated view of the cyclic axis (for example,
// centred on the antimeridian instead of the prime meridian).
type Partition struct {
	High []int
	Low  []int
}

// AntimeridianPartition builds the partition that rotates a [0,360) axis
// to be centred on the antimeridian: columns with lon >= 180 lead.
func AntimeridianPartition(lons []float64) Partition {
	var p Partition
	for i, lon := range lons {
		if lon >= 180 {
			p.High = append(p.High, i)
		} else {
			p.Low = append(p.Low, i)
		}
	}
	return p
}

// Validate checks the exact-partition precondition: every index in
// [0,nx) appears in exactly one of High and Low.
func (p Partition) Validate(nx int) error {
	if len(p.High)+len(p.Low) != nx {
		return fmt.Errorf("grid: partition covers %d columns, axis has %d", len(p.High)+len(p.Low), nx)
	}
	seen := make([]bool, nx)
	for _, block := range [][]int{p.High, p.Low} {
		for _, i := range block {
			if i < 0 || i >= nx {
				return fmt.Errorf("grid: partition index %d out of range [0,%d)", i, nx)
			}
			if seen[i] {
				return fmt.Errorf("grid: partition index %d appears twice", i)
			}
			seen[i] = true
		}
	}
	return nil
}

// order returns the source column for each destination column.
func (p Partition) order() []int {
	out := make([]int, 0, len(p.High)+len(p.Low))
	out = append(out, p.High...)
	out = append(out, p.Low...)
	return out
}

// ReorderLonBlocks reindexes field along dimension lonDim by
// concatenating the High-indexed columns before the Low-indexed ones.
// Other dimensions are unchanged; a new array is returned.
func (p Partition) ReorderLonBlocks(field *sparse.DenseArray, lonDim int) (*sparse.DenseArray, error) {
	if lonDim < 0 || lonDim >= len(field.Shape) {
		return nil, fmt.Errorf("grid: lon dimension %d out of range for shape %v", lonDim, field.Shape)
	}
	nx := field.Shape[lonDim]
	if err := p.Validate(nx); err != nil {
		return nil, err
	}

	out := sparse.ZerosDense(field.Shape...)
	order := p.order()

	// Stride arithmetic over the flat element slice: for every element,
	// the lon coordinate m is remapped to source column order[m].
	stride := 1
	for d := lonDim + 1; d < len(field.Shape); d++ {
		stride *= field.Shape[d]
	}
	for e := range out.Elements {
		m := (e / stride) % nx
		src := e + (order[m]-m)*stride
		out.Elements[e] = field.Elements[src]
	}
	return out, nil
}

// ReorderAxis applies the partition to a 1-D axis vector.
func (p Partition) ReorderAxis(axis []float64) ([]float64, error) {
	if err := p.Validate(len(axis)); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(axis))
	for _, i := range p.order() {
		out = append(out, axis[i])
	}
	return out, nil
}

// WrapLongitudes maps longitudes greater than 180 into [-180,180] by
// subtracting 360; values <= 180 pass through unchanged. The boundary
// rule is strictly "> 180", so 180 stays 180 while 360 becomes 0. This
// keeps raw station coordinates consistent with an
// antimeridian-reindexed grid.
func WrapLongitudes(lons []float64) []float64 {
	out := make([]float64, len(lons))
	for i, lon := range lons {
		out[i] = WrapLongitude(lon)
	}
	return out
}

// WrapLongitude wraps a single longitude value (see WrapLongitudes).
func WrapLongitude(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// Reindex returns a rotated view of the grid: axes, meshes and ocean
// template reindexed by the partition. The leading High block comes from
// the end of the cyclic axis, so its longitudes are presented one
// revolution west (minus 360) to keep the axis monotonic across the
// seam. Station coordinates use the separate WrapLongitudes rule; a
// station at exactly 180 therefore sits one revolution east of a grid
// seam column at -180, as in the upstream convention. The receiver is
// not modified.
func (g *Grid) Reindex(p Partition) (*Grid, error) {
	lons, err := p.ReorderAxis(g.Lons)
	if err != nil {
		return nil, err
	}
	for m := range p.High {
		lons[m] -= 360
	}

	out := &Grid{
		Lons:   lons,
		Lats:   append([]float64(nil), g.Lats...),
		Depths: append([]float64(nil), g.Depths...),
	}
	if err := checkMonotonic("lon", out.Lons); err != nil {
		return nil, fmt.Errorf("grid: reindexed axis not monotonic (partition does not rotate the seam cleanly): %w", err)
	}

	if out.LonMesh, err = p.ReorderLonBlocks(g.LonMesh, 1); err != nil {
		return nil, err
	}
	nz := g.Nz()
	nx := g.Nx()
	for e := range out.LonMesh.Elements {
		if (e/nz)%nx < len(p.High) {
			out.LonMesh.Elements[e] -= 360
		}
	}
	if out.LatMesh, err = p.ReorderLonBlocks(g.LatMesh, 1); err != nil {
		return nil, err
	}
	if out.DepthMesh, err = p.ReorderLonBlocks(g.DepthMesh, 1); err != nil {
		return nil, err
	}
	if g.Ocean != nil {
		if out.Ocean, err = p.ReorderLonBlocks(g.Ocean, 1); err != nil {
			return nil, err
		}
	}
	return out, nil
}
