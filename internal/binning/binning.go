package binning

import (
	"fmt"
	"sync"

	"github.com/ctessum/sparse"

	"github.com/pelagic-data/section.report/internal/grid"
)

// DefaultSentinel marks empty cells in the gridded statistics. It must
// lie outside the legitimate range of the measured quantity.
const DefaultSentinel = -9.0

// Sample is one point measurement. Expedition and Station identify the
// originating cast for track selection; they are supplied by the dataset
// reader, not computed here.
type Sample struct {
	Lon, Lat, Depth float64
	Value, Err      float64
	Expedition      string
	Station         string
}

// Operator is the sparse sample-to-cell assignment: Cells[s] holds the
// flat cell index sample s landed in, or -1 when unassigned. Each sample
// contributes to at most one cell.
type Operator struct {
	Cells []int
	Ny    int
	Nx    int
	Nz    int
}

// Assigned returns the number of samples with a cell assignment.
func (op *Operator) Assigned() int {
	n := 0
	for _, c := range op.Cells {
		if c >= 0 {
			n++
		}
	}
	return n
}

// Result holds the gridded statistics, shape ny×nx×nz each. Cells with
// Count zero hold the sentinel in Mean and Variance.
type Result struct {
	Mean     *sparse.DenseArray
	Variance *sparse.DenseArray
	Count    *sparse.DenseArray
	Operator *Operator
	Sentinel float64
}

// Indexer bins samples onto a target grid.
type Indexer struct {
	Grid     *grid.Grid
	Sentinel float64
}

// NewIndexer creates an Indexer with the default sentinel.
func NewIndexer(g *grid.Grid) *Indexer {
	return &Indexer{Grid: g, Sentinel: DefaultSentinel}
}

// Bin aggregates the samples into per-cell statistics. NaN-valued inputs
// must be filtered by the caller; they are not special-cased here.
func (ix *Indexer) Bin(samples []Sample) (*Result, error) {
	n := len(samples)
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	v := make([]float64, n)
	e := make([]float64, n)
	for s, smp := range samples {
		x[s], y[s], z[s] = smp.Lon, smp.Lat, smp.Depth
		v[s], e[s] = smp.Value, smp.Err
	}
	return ix.BinColumns(x, y, z, v, e)
}

// BinColumns is Bin over parallel coordinate columns. Mismatched column
// lengths are a contract violation.
func (ix *Indexer) BinColumns(x, y, z, v, e []float64) (*Result, error) {
	n := len(x)
	if len(y) != n || len(z) != n || len(v) != n || len(e) != n {
		return nil, fmt.Errorf("binning: column lengths differ (x=%d y=%d z=%d v=%d err=%d)",
			len(x), len(y), len(z), len(v), len(e))
	}
	g := ix.Grid
	if g == nil {
		return nil, fmt.Errorf("binning: nil grid")
	}
	// The depth axis comes from a single reference column; revalidate it
	// here so a malformed grid fails before any assignment work.
	if err := checkDepthAxis(g.Depths); err != nil {
		return nil, err
	}

	op := &Operator{Cells: make([]int, n), Ny: g.Ny(), Nx: g.Nx(), Nz: g.Nz()}

	// Vertical pass: nearest reference depth level per sample, grouped by
	// level for the horizontal pass. Out-of-range depths clamp.
	byLevel := make(map[int][]int)
	levels := make([]int, n)
	for s := 0; s < n; s++ {
		k := grid.NearestIndex(g.Depths, z[s])
		levels[s] = k
		byLevel[k] = append(byLevel[k], s)
	}

	// Horizontal pass: each level's nearest-neighbour search is
	// independent, so levels run concurrently. Every goroutine writes
	// only its own samples' operator slots.
	var wg sync.WaitGroup
	for k, idxs := range byLevel {
		wg.Add(1)
		go func(k int, idxs []int) {
			defer wg.Done()
			tree := newLevelIndex(g, k)
			for _, s := range idxs {
				row, col, ok := tree.nearest(x[s], y[s])
				if !ok {
					op.Cells[s] = -1
					continue
				}
				op.Cells[s] = g.CellIndex(row, col, k)
			}
		}(k, idxs)
	}
	wg.Wait()

	return ix.aggregate(op, v, e), nil
}

// aggregate folds the assigned samples into per-cell statistics.
//
// variance = Σerr²/n² + Σval²/n − mean². The first term is propagated
// measurement uncertainty, the second the uncorrected population spread
// of values in the cell. The formula is statistically non-standard
// (not Bessel-corrected, and bimodal in meaning) but is kept exactly for
// compatibility with the upstream data products.
func (ix *Indexer) aggregate(op *Operator, v, e []float64) *Result {
	ncells := op.Ny * op.Nx * op.Nz
	count := make([]float64, ncells)
	sumV := make([]float64, ncells)
	sumV2 := make([]float64, ncells)
	sumE2 := make([]float64, ncells)
	for s, c := range op.Cells {
		if c < 0 {
			continue
		}
		count[c]++
		sumV[c] += v[s]
		sumV2[c] += v[s] * v[s]
		sumE2[c] += e[s] * e[s]
	}

	res := &Result{
		Mean:     sparse.ZerosDense(op.Ny, op.Nx, op.Nz),
		Variance: sparse.ZerosDense(op.Ny, op.Nx, op.Nz),
		Count:    sparse.ZerosDense(op.Ny, op.Nx, op.Nz),
		Operator: op,
		Sentinel: ix.Sentinel,
	}
	for c := 0; c < ncells; c++ {
		if count[c] == 0 {
			res.Mean.Elements[c] = ix.Sentinel
			res.Variance.Elements[c] = ix.Sentinel
			continue
		}
		nc := count[c]
		mean := sumV[c] / nc
		res.Mean.Elements[c] = mean
		res.Variance.Elements[c] = sumE2[c]/(nc*nc) + sumV2[c]/nc - mean*mean
		res.Count.Elements[c] = nc
	}
	return res
}

func checkDepthAxis(depths []float64) error {
	if len(depths) == 0 {
		return fmt.Errorf("binning: empty depth axis")
	}
	for k := 1; k < len(depths); k++ {
		if depths[k] <= depths[k-1] {
			return fmt.Errorf("binning: depth axis not strictly increasing at level %d (%g after %g)",
				k, depths[k], depths[k-1])
		}
	}
	return nil
}
