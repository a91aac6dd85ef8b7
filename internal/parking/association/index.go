package association

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var (
	// ErrNoCandidates is returned when the index holds no ground-truth centres.
	ErrNoCandidates = errors.New("no ground-truth candidates")
	// ErrNonFiniteQuery is returned for a query point with a NaN or Inf
	// coordinate, which has no nearest centre.
	ErrNonFiniteQuery = errors.New("non-finite query point")
)

// tieEpsilon is the squared-distance slack within which two centres count
// as equidistant from a query.
const tieEpsilon = 1e-12

// Index is a nearest-neighbour structure over ground-truth slot centres.
// Equidistant centres resolve to the slot that appeared first in the
// input.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// NewIndex builds an index over the centroids of gt.
func NewIndex(gt []slots.GroundTruthSlot) *Index {
	pts := make(centers, 0, len(gt))
	for i, s := range gt {
		pts = append(pts, center{id: s.ID, rank: i, p: s.Center()})
	}
	ix := &Index{n: len(pts)}
	if len(pts) > 0 {
		ix.tree = kdtree.New(pts, false)
	}
	return ix
}

// Len is the number of indexed centres.
func (ix *Index) Len() int {
	return ix.n
}

// Nearest returns the ground-truth id whose centre is closest to p and the
// Euclidean distance to it.
func (ix *Index) Nearest(p orb.Point) (int, float64, error) {
	if ix == nil || ix.tree == nil {
		return 0, 0, ErrNoCandidates
	}
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: %v", ErrNonFiniteQuery, p)
		}
	}
	q := center{p: p}
	_, d2 := ix.tree.Nearest(q)

	keep := kdtree.NewDistKeeper(d2 + tieEpsilon)
	ix.tree.NearestSet(keep, q)

	var best center
	found := false
	for _, cd := range keep.Heap {
		c, ok := cd.Comparable.(center)
		if !ok {
			continue // sentinel
		}
		if !found || c.rank < best.rank {
			best, found = c, true
		}
	}
	if !found {
		return 0, 0, ErrNoCandidates
	}
	return best.id, math.Sqrt(best.Distance(q)), nil
}

// center is one ground-truth centroid in the tree. rank is its position in
// the input and breaks distance ties.
type center struct {
	id   int
	rank int
	p    orb.Point
}

func (c center) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	q := o.(center)
	return c.p[d] - q.p[d]
}

func (c center) Dims() int { return 2 }

// Distance is the squared Euclidean distance, as kdtree expects.
func (c center) Distance(o kdtree.Comparable) float64 {
	q := o.(center)
	dx, dy := c.p[0]-q.p[0], c.p[1]-q.p[1]
	return dx*dx + dy*dy
}

type centers []center

func (c centers) Index(i int) kdtree.Comparable { return c[i] }
func (c centers) Len() int                      { return len(c) }
func (c centers) Pivot(d kdtree.Dim) int        { return plane{centers: c, Dim: d}.Pivot() }
func (c centers) Slice(start, end int) kdtree.Interface {
	return c[start:end]
}

// plane sorts centres along one dimension for median pivoting.
type plane struct {
	kdtree.Dim
	centers
}

func (p plane) Less(i, j int) bool {
	return p.centers[i].p[p.Dim] < p.centers[j].p[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.centers = p.centers[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.centers[i], p.centers[j] = p.centers[j], p.centers[i]
}
