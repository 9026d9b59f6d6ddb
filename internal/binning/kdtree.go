package binning

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pelagic-data/section.report/internal/grid"
)

// cellPoint is one horizontal grid position at a fixed depth level,
// carrying its mesh indices so a nearest-neighbour hit maps back to a
// cell.
type cellPoint struct {
	x, y     float64
	row, col int
}

func (p cellPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(cellPoint)
	switch d {
	case 0:
		return p.x - q.x
	default:
		return p.y - q.y
	}
}

func (p cellPoint) Dims() int { return 2 }

func (p cellPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cellPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

// cellPoints satisfies kdtree.Interface.
type cellPoints []cellPoint

func (p cellPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p cellPoints) Len() int                      { return len(p) }
func (p cellPoints) Pivot(d kdtree.Dim) int {
	return cellPlane{cellPoints: p, Dim: d}.Pivot()
}
func (p cellPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// cellPlane satisfies kdtree.SortSlicer for pivot selection.
type cellPlane struct {
	kdtree.Dim
	cellPoints
}

func (p cellPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.cellPoints[i].x < p.cellPoints[j].x
	default:
		return p.cellPoints[i].y < p.cellPoints[j].y
	}
}
func (p cellPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p cellPlane) Slice(start, end int) kdtree.SortSlicer {
	p.cellPoints = p.cellPoints[start:end]
	return p
}
func (p cellPlane) Swap(i, j int) {
	p.cellPoints[i], p.cellPoints[j] = p.cellPoints[j], p.cellPoints[i]
}

// levelIndex answers horizontal nearest-neighbour queries against one
// depth level's coordinate mesh.
type levelIndex struct {
	tree *kdtree.Tree
}

// newLevelIndex builds the search tree for level k from the grid meshes.
// Mesh positions with NaN coordinates are excluded.
func newLevelIndex(g *grid.Grid, k int) *levelIndex {
	pts := make(cellPoints, 0, g.Ny()*g.Nx())
	for j := 0; j < g.Ny(); j++ {
		for i := 0; i < g.Nx(); i++ {
			px := g.LonMesh.Get(j, i, k)
			py := g.LatMesh.Get(j, i, k)
			if math.IsNaN(px) || math.IsNaN(py) {
				continue
			}
			pts = append(pts, cellPoint{x: px, y: py, row: j, col: i})
		}
	}
	if len(pts) == 0 {
		return &levelIndex{}
	}
	return &levelIndex{tree: kdtree.New(pts, false)}
}

// nearest returns the mesh indices of the closest grid position, or
// ok=false when the level has no defined positions (degenerate grid).
func (li *levelIndex) nearest(x, y float64) (row, col int, ok bool) {
	if li.tree == nil {
		return 0, 0, false
	}
	got, _ := li.tree.Nearest(cellPoint{x: x, y: y})
	if got == nil {
		return 0, 0, false
	}
	p := got.(cellPoint)
	return p.row, p.col, true
}
