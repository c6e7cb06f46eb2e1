/*package field contains Array, a multi-component 3D field stored over a
valid region plus a margin of ghost cells.
*/
package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/phil-mansfield/picdiag/geom"
)

// Array is a 4D view (x, y, z, component) over contiguous float64 data.
// Indices are absolute: (i, j, k) refers to the same point of index space in
// every Array with the same staggering. Data is x-major within a component.
type Array struct {
	geom.Grid
	Valid   geom.CellBounds
	Ghost   [3]int
	Stagger [3]int
	NComp   int
	Data    []float64
}

// New allocates an Array covering valid grown by ghost on each side.
func New(valid geom.CellBounds, ghost [3]int, ncomp int, stagger [3]int) *Array {
	a := &Array{Valid: valid, Ghost: ghost, Stagger: stagger, NComp: ncomp}
	grown := valid.Grow(ghost)
	a.Grid.Init(grown.Origin, grown.Width)
	a.Data = make([]float64, a.Grid.Volume*ncomp)
	return a
}

// Check returns an error if a's metadata is inconsistent.
func (a *Array) Check() error {
	for i := 0; i < 3; i++ {
		if a.Stagger[i] != geom.Cell && a.Stagger[i] != geom.Node {
			return fmt.Errorf(
				"Staggering along axis %d is %d, but must be %d (Cell) "+
					"or %d (Node).", i, a.Stagger[i], geom.Cell, geom.Node,
			)
		}
		if a.Ghost[i] < 0 {
			return fmt.Errorf(
				"Ghost width along axis %d is %d, but must be non-negative.",
				i, a.Ghost[i],
			)
		}
	}
	if a.NComp <= 0 {
		return fmt.Errorf("Array has %d components, must have at least 1.",
			a.NComp)
	}
	if a.Valid.Empty() {
		return fmt.Errorf("Array has empty valid bounds %v.", a.Valid)
	}
	if len(a.Data) != a.Grid.Volume*a.NComp {
		return fmt.Errorf(
			"Array data has length %d, but bounds and components "+
				"require %d.", len(a.Data), a.Grid.Volume*a.NComp,
		)
	}
	return nil
}

// Grown returns the valid bounds extended by n ghost cells.
func (a *Array) Grown(n [3]int) geom.CellBounds {
	return a.Valid.Grow(n)
}

// At returns the index into Data of (i, j, k, c).
func (a *Array) At(i, j, k, c int) int {
	return a.Grid.Idx(i, j, k) + c*a.Grid.Volume
}

// Get returns the value at (i, j, k) of component c.
func (a *Array) Get(i, j, k, c int) float64 {
	return a.Data[a.At(i, j, k, c)]
}

// Set writes v to (i, j, k) of component c.
func (a *Array) Set(i, j, k, c int, v float64) {
	a.Data[a.At(i, j, k, c)] = v
}

// Comp returns the slice of Data which holds component c, ghosts included.
func (a *Array) Comp(c int) []float64 {
	return a.Data[c*a.Grid.Volume : (c+1)*a.Grid.Volume]
}

// Fill sets every value of component c, ghosts included, to v.
func (a *Array) Fill(c int, v float64) {
	xs := a.Comp(c)
	for i := range xs {
		xs[i] = v
	}
}

// FillFunc sets every value of component c, ghosts included, to f(i, j, k).
func (a *Array) FillFunc(c int, f func(i, j, k int) float64) {
	xs := a.Comp(c)
	for idx := range xs {
		i, j, k := a.Grid.Coords(idx)
		xs[idx] = f(i, j, k)
	}
}

// Copy copies ncomp components of src, starting at scomp, into a starting at
// dcomp. Only the overlap of the two valid regions is written. It returns
// the number of points copied per component.
func (a *Array) Copy(src *Array, scomp, dcomp, ncomp int) int {
	over, ok := a.Valid.IntersectBounds(&src.Valid)
	if !ok {
		return 0
	}
	hi := over.Hi()
	for c := 0; c < ncomp; c++ {
		for k := over.Origin[2]; k <= hi[2]; k++ {
			for j := over.Origin[1]; j <= hi[1]; j++ {
				for i := over.Origin[0]; i <= hi[0]; i++ {
					a.Set(i, j, k, c+dcomp, src.Get(i, j, k, c+scomp))
				}
			}
		}
	}
	return over.Volume()
}

// ValidValues appends the values of component c inside the valid region to
// buf and returns it.
func (a *Array) ValidValues(c int, buf []float64) []float64 {
	buf = buf[:0]
	hi := a.Valid.Hi()
	for k := a.Valid.Origin[2]; k <= hi[2]; k++ {
		for j := a.Valid.Origin[1]; j <= hi[1]; j++ {
			for i := a.Valid.Origin[0]; i <= hi[0]; i++ {
				buf = append(buf, a.Get(i, j, k, c))
			}
		}
	}
	return buf
}

// Summary contains summary statistics of one component.
type Summary struct {
	Min, Max, Mean, Std float64
	Points              int
}

// Stats computes a Summary of component c over the valid region.
func (a *Array) Stats(c int) Summary {
	xs := a.ValidValues(c, make([]float64, 0, a.Valid.Volume()))
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Summary{
		Min: floats.Min(xs), Max: floats.Max(xs),
		Mean: mean, Std: std, Points: len(xs),
	}
}
