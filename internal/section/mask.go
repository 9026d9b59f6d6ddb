package section

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/interp"

	"github.com/pelagic-data/section.report/internal/grid"
)

// BuildMask selects a swath of half-width w grid cells around the track
// on the grid's horizontal plane, replicated identically through every
// depth level. Included cells hold 1 (scaled by the grid's ocean
// template), excluded cells hold NaN so the mask composes with data
// fields by multiplication.
//
// Grid positions outside the track's interpolation domain stay
// unmasked. A band pushed past the first or last dependent-axis index is
// a bounds error rather than a silently propagated invalid index.
func BuildMask(t Track, g *grid.Grid, o Orientation, w int) (*sparse.DenseArray, error) {
	if w < 0 {
		return nil, fmt.Errorf("section: negative half-width %d", w)
	}
	mask := sparse.ZerosDense(g.Ny(), g.Nx(), g.Nz())
	for i := range mask.Elements {
		mask.Elements[i] = math.NaN()
	}

	ind, dep := t.independent(o)
	ind, dep = dedupe(ind, dep)
	// A single-point track has no interpolation domain; the mask stays
	// fully excluded, which lets empty tracks degrade gracefully.
	if len(ind) < 2 {
		return mask, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(ind, dep); err != nil {
		return nil, fmt.Errorf("section: track interpolation: %w", err)
	}

	indAxis, depAxis := g.Lons, g.Lats
	if o == AlongLatitude {
		indAxis, depAxis = g.Lats, g.Lons
	}

	for m, pos := range indAxis {
		if pos < ind[0] || pos > ind[len(ind)-1] {
			continue
		}
		center := grid.NearestIndex(depAxis, pl.Predict(pos))
		lo, hi := center-w, center+w
		if lo < 0 || hi >= len(depAxis) {
			return nil, fmt.Errorf("section: half-width %d pushes band [%d,%d] outside axis of length %d",
				w, lo, hi, len(depAxis))
		}
		for b := lo; b <= hi; b++ {
			row, col := b, m
			if o == AlongLatitude {
				row, col = m, b
			}
			val := g.OceanAt(row, col)
			for k := 0; k < g.Nz(); k++ {
				mask.Set(val, row, col, k)
			}
		}
	}
	return mask, nil
}

// ApplyMask multiplies a gridded field by a mask of identical shape,
// returning a new array. NaN mask entries knock the field out.
func ApplyMask(field, mask *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(field.Elements) != len(mask.Elements) {
		return nil, fmt.Errorf("section: field shape %v does not match mask %v", field.Shape, mask.Shape)
	}
	out := field.Copy()
	for i, m := range mask.Elements {
		out.Elements[i] *= m
	}
	return out, nil
}
