package section

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/interp"

	"github.com/pelagic-data/section.report/internal/grid"
)

// minValidForFill is the minimum number of valid points a line must hold
// before gap-fill interpolation applies. Fewer points leave the line
// untouched; no extrapolation, no fabricated values.
const minValidForFill = 3

// Section is a two-dimensional cross-section along (track position ×
// depth). Values holds NaN where neither gap-fill rule could apply;
// downstream consumers must tolerate partial coverage.
type Section struct {
	Positions []float64 // independent axis coordinates (lon or lat)
	Depths    []float64
	Values    *sparse.DenseArray // shape len(Positions)×len(Depths)
}

// Extract collapses a 3-D gridded field to a cross-section: negative
// values (the binning sentinel for empty cells) become missing, the
// transverse horizontal dimension is averaged ignoring missing values,
// then gaps are filled along depth and along the track.
func Extract(field *sparse.DenseArray, g *grid.Grid, o Orientation) (*Section, error) {
	if len(field.Shape) != 3 || field.Shape[0] != g.Ny() || field.Shape[1] != g.Nx() || field.Shape[2] != g.Nz() {
		return nil, fmt.Errorf("section: field shape %v does not match grid %dx%dx%d",
			field.Shape, g.Ny(), g.Nx(), g.Nz())
	}

	positions := g.Lons
	npos, ntrans := g.Nx(), g.Ny()
	if o == AlongLatitude {
		positions = g.Lats
		npos, ntrans = g.Ny(), g.Nx()
	}
	nz := g.Nz()

	sec := &Section{
		Positions: append([]float64(nil), positions...),
		Depths:    append([]float64(nil), g.Depths...),
		Values:    sparse.ZerosDense(npos, nz),
	}

	// Transverse collapse, treating negatives and NaN as missing.
	for p := 0; p < npos; p++ {
		for k := 0; k < nz; k++ {
			sum, cnt := 0.0, 0
			for q := 0; q < ntrans; q++ {
				row, col := q, p
				if o == AlongLatitude {
					row, col = p, q
				}
				v := field.Get(row, col, k)
				if math.IsNaN(v) || v < 0 {
					continue
				}
				sum += v
				cnt++
			}
			if cnt == 0 {
				sec.Values.Set(math.NaN(), p, k)
			} else {
				sec.Values.Set(sum/float64(cnt), p, k)
			}
		}
	}

	// Depth pass: each position's column independently.
	col := make([]float64, nz)
	for p := 0; p < npos; p++ {
		for k := 0; k < nz; k++ {
			col[k] = sec.Values.Get(p, k)
		}
		if err := gapFillLine(sec.Depths, col); err != nil {
			return nil, err
		}
		for k := 0; k < nz; k++ {
			sec.Values.Set(col[k], p, k)
		}
	}

	// Along-track pass: each depth level independently.
	row := make([]float64, npos)
	for k := 0; k < nz; k++ {
		for p := 0; p < npos; p++ {
			row[p] = sec.Values.Get(p, k)
		}
		if err := gapFillLine(sec.Positions, row); err != nil {
			return nil, err
		}
		for p := 0; p < npos; p++ {
			sec.Values.Set(row[p], p, k)
		}
	}

	return sec, nil
}

// gapFillLine linearly interpolates vals over the full axis when at
// least minValidForFill entries are valid, overwriting vals in place.
// Positions beyond the outermost valid points take the nearest valid
// value (the axis nearest-extends; this fills boundary gaps without
// inventing a slope). With too few valid points the line is returned
// unmodified.
func gapFillLine(axis, vals []float64) error {
	var xs, ys []float64
	for i, v := range vals {
		if !math.IsNaN(v) {
			xs = append(xs, axis[i])
			ys = append(ys, v)
		}
	}
	if len(xs) < minValidForFill {
		return nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return fmt.Errorf("section: gap-fill interpolation: %w", err)
	}
	for i := range vals {
		vals[i] = pl.Predict(axis[i])
	}
	return nil
}
