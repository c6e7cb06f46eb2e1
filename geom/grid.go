/*package geom contains index-space and real-space bounding boxes for field
arrays and particle domains.
*/
package geom

// Staggering flags. A Node axis stores values on cell faces/corners, a Cell
// axis stores them at cell centers.
const (
	Cell = 0
	Node = 1
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid.
type Grid struct {
	CellBounds
	Length, Area, Volume int
}

// CellBounds represents a bounding box aligned to grid cells. Width is the
// number of indices along each axis, so a box with Width 0 on any axis is
// empty.
type CellBounds struct {
	Origin, Width [3]int
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// Hi returns the largest index contained in cb along each axis.
func (cb *CellBounds) Hi() [3]int {
	return [3]int{
		cb.Origin[0] + cb.Width[0] - 1,
		cb.Origin[1] + cb.Width[1] - 1,
		cb.Origin[2] + cb.Width[2] - 1,
	}
}

// Empty returns true if cb contains no indices.
func (cb *CellBounds) Empty() bool {
	return cb.Width[0] <= 0 || cb.Width[1] <= 0 || cb.Width[2] <= 0
}

// Volume returns the number of indices in cb.
func (cb *CellBounds) Volume() int {
	if cb.Empty() {
		return 0
	}
	return cb.Width[0] * cb.Width[1] * cb.Width[2]
}

// Contains returns true if (x, y, z) is inside cb.
func (cb *CellBounds) Contains(x, y, z int) bool {
	c := [3]int{x, y, z}
	for i := 0; i < 3; i++ {
		if c[i] < cb.Origin[i] || c[i] >= cb.Origin[i]+cb.Width[i] {
			return false
		}
	}
	return true
}

// ContainsBounds returns true if every index of cb2 is inside cb1.
func (cb1 *CellBounds) ContainsBounds(cb2 *CellBounds) bool {
	for i := 0; i < 3; i++ {
		if cb2.Origin[i] < cb1.Origin[i] ||
			cb2.Origin[i]+cb2.Width[i] > cb1.Origin[i]+cb1.Width[i] {
			return false
		}
	}
	return true
}

// Grow returns cb extended by n indices on both sides of each axis.
func (cb *CellBounds) Grow(n [3]int) CellBounds {
	out := *cb
	for i := 0; i < 3; i++ {
		out.Origin[i] -= n[i]
		out.Width[i] += 2 * n[i]
	}
	return out
}

// IntersectBounds returns the overlap of two non-periodic bounding boxes and
// false if they do not overlap.
func (cb1 *CellBounds) IntersectBounds(cb2 *CellBounds) (CellBounds, bool) {
	out := CellBounds{}
	for i := 0; i < 3; i++ {
		lo, hi := cb1.Origin[i], cb1.Origin[i]+cb1.Width[i]
		if cb2.Origin[i] > lo {
			lo = cb2.Origin[i]
		}
		if e := cb2.Origin[i] + cb2.Width[i]; e < hi {
			hi = e
		}
		if hi <= lo {
			return CellBounds{}, false
		}
		out.Origin[i], out.Width[i] = lo, hi-lo
	}
	return out, true
}

// Convert changes the staggering of cb from the flags in from to the flags
// in to. A Cell axis of n cells becomes a Node axis of n + 1 nodes with the
// same origin, and the reverse.
func (cb *CellBounds) Convert(from, to [3]int) CellBounds {
	out := *cb
	for i := 0; i < 3; i++ {
		out.Width[i] += to[i] - from[i]
	}
	return out
}

// Coarsen returns the bounds covered by cb on a grid that is ratio times
// coarser. Node axes keep any partially covered coarse node.
func (cb *CellBounds) Coarsen(ratio, stagger [3]int) CellBounds {
	out := CellBounds{}
	hi := cb.Hi()
	for i := 0; i < 3; i++ {
		lo := floorDiv(cb.Origin[i], ratio[i])
		h := floorDiv(hi[i], ratio[i])
		if stagger[i] == Node && pMod(hi[i], ratio[i]) != 0 {
			h++
		}
		out.Origin[i], out.Width[i] = lo, h-lo+1
	}
	return out
}

// Refine returns the bounds covered by cb on a grid that is ratio times
// finer.
func (cb *CellBounds) Refine(ratio, stagger [3]int) CellBounds {
	out := CellBounds{}
	hi := cb.Hi()
	for i := 0; i < 3; i++ {
		lo := cb.Origin[i] * ratio[i]
		h := hi[i] * ratio[i]
		if stagger[i] == Cell {
			h = (hi[i]+1)*ratio[i] - 1
		}
		out.Origin[i], out.Width[i] = lo, h-lo+1
	}
	return out
}

// Coarsenable returns true if cb can be coarsened by ratio without losing or
// gaining any indices.
func (cb *CellBounds) Coarsenable(ratio, stagger [3]int) bool {
	if cb.Empty() {
		return false
	}
	for i := 0; i < 3; i++ {
		if ratio[i] < 1 {
			return false
		}
	}
	crse := cb.Coarsen(ratio, stagger)
	return crse.Refine(ratio, stagger) == *cb
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}

// floorDiv computes floor(x / y) for positive y.
func floorDiv(x, y int) int {
	return (x - pMod(x, y)) / y
}
