/*package coarsen fills coarse field arrays by averaging over nearby points of
a fine array, taking the staggering of both arrays into account. These are
mostly used to shrink fields before they are written to disk.
*/
package coarsen

import (
	"fmt"

	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/field"
	"github.com/phil-mansfield/picdiag/geom"
)

// Reader is the read-only view of a fine array that Interp needs.
type Reader interface {
	Get(i, j, k, comp int) float64
}

// Interp returns the value of the coarse array at (i, j, k) by averaging
// either one or two points of src along each axis. sf and sc are the
// staggering flags of the fine and coarse arrays (geom.Cell or geom.Node)
// and cr is the coarsening ratio along each axis. All weights are equal.
func Interp(src Reader, sf, sc, cr [3]int, i, j, k, comp int) float64 {
	ic := [3]int{i, j, k}

	var np, idxMin [3]int
	for l := 0; l < 3; l++ {
		if cr[l] == 1 {
			np[l] = 1 + abs(sf[l]-sc[l])
			idxMin[l] = ic[l] - sc[l]*(1-sf[l])
		} else {
			np[l] = 2 - sf[l]
			idxMin[l] = ic[l]*cr[l] + (cr[l]/2)*(1-sc[l]) - (1 - sf[l])
		}
	}

	wx := 1.0 / float64(np[0])
	wy := 1.0 / float64(np[1])
	wz := 1.0 / float64(np[2])

	c := 0.0
	for kref := 0; kref < np[2]; kref++ {
		for jref := 0; jref < np[1]; jref++ {
			for iref := 0; iref < np[0]; iref++ {
				c += wx * wy * wz * src.Get(
					idxMin[0]+iref, idxMin[1]+jref, idxMin[2]+kref, comp,
				)
			}
		}
	}
	return c
}

// FineBounds returns the bounds of the fine points Interp reads when it is
// called on every index of crse.
func FineBounds(crse geom.CellBounds, sf, sc, cr [3]int) geom.CellBounds {
	out := geom.CellBounds{}
	hi := crse.Hi()
	for l := 0; l < 3; l++ {
		var lo, h, np int
		if cr[l] == 1 {
			np = 1 + abs(sf[l]-sc[l])
			lo = crse.Origin[l] - sc[l]*(1-sf[l])
			h = hi[l] - sc[l]*(1-sf[l])
		} else {
			np = 2 - sf[l]
			off := (cr[l]/2)*(1-sc[l]) - (1 - sf[l])
			lo = crse.Origin[l]*cr[l] + off
			h = hi[l]*cr[l] + off
		}
		out.Origin[l], out.Width[l] = lo, h+np-lo
	}
	return out
}

// Loop writes Interp(src) into every point of dst's valid region grown by
// ngrow, for components dcomp + c of dst and scomp + c of src with c in
// [0, ncomp). Staggering is taken from the two arrays. A zero entry in
// ratio means no coarsening along that axis.
//
// Loop does no validation: src must cover FineBounds of the grown region
// and both component ranges must exist. Use Coarsen for checked calls.
func Loop(
	dst, src *field.Array, dcomp, scomp, ncomp int, ngrow, ratio [3]int,
) {
	cr := normRatio(ratio)
	bx := dst.Grown(ngrow)
	if bx.Empty() || ncomp <= 0 {
		return
	}

	workers := picdiag.NumCores
	if workers > bx.Width[2] {
		workers = bx.Width[2]
	}
	if workers < 1 {
		workers = 1
	}

	lp := &loop{
		dst: dst, src: src, bx: bx, sf: src.Stagger, sc: dst.Stagger,
		cr: cr, dcomp: dcomp, scomp: scomp, ncomp: ncomp, workers: workers,
	}

	out := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go lp.chanPlanes(id, out)
	}
	lp.chanPlanes(workers-1, out)

	for i := 0; i < workers; i++ {
		<-out
	}
}

// loop holds the read-only state shared by Loop's workers. Each worker
// writes a disjoint set of z-planes.
type loop struct {
	dst, src     *field.Array
	bx           geom.CellBounds
	sf, sc, cr   [3]int
	dcomp, scomp int
	ncomp        int
	workers      int
}

func (lp *loop) chanPlanes(id int, out chan<- int) {
	hi := lp.bx.Hi()
	for k := lp.bx.Origin[2] + id; k <= hi[2]; k += lp.workers {
		for n := 0; n < lp.ncomp; n++ {
			for j := lp.bx.Origin[1]; j <= hi[1]; j++ {
				for i := lp.bx.Origin[0]; i <= hi[0]; i++ {
					lp.dst.Set(i, j, k, n+lp.dcomp, Interp(
						lp.src, lp.sf, lp.sc, lp.cr, i, j, k, n+lp.scomp,
					))
				}
			}
		}
	}
	out <- id
}

// Coarsen stores in dst the values obtained by coarsening src by ratio,
// filling ngrow ghost cells on every axis. See CoarsenVec.
func Coarsen(
	dst, src *field.Array, dcomp, scomp, ncomp, ngrow int, ratio [3]int,
) error {
	return CoarsenVec(
		dst, src, dcomp, scomp, ncomp, [3]int{ngrow, ngrow, ngrow}, ratio,
	)
}

// CoarsenVec stores in dst the values obtained by coarsening src by ratio,
// filling ngrow[i] ghost cells along axis i. A zero entry in ratio means no
// coarsening along that axis.
//
// The valid bounds of src, converted to dst's staggering, must be
// coarsenable by ratio. If the coarsened bounds are dst's valid bounds, dst
// is filled directly. Otherwise the result is computed on a temporary array
// with the coarsened bounds and the part overlapping dst's valid region is
// copied over.
func CoarsenVec(
	dst, src *field.Array, dcomp, scomp, ncomp int, ngrow, ratio [3]int,
) error {
	cr, err := checkArgs(dst, src, dcomp, scomp, ncomp, ngrow, ratio)
	if err != nil {
		return err
	}

	conv := src.Valid.Convert(src.Stagger, dst.Stagger)
	if !conv.Coarsenable(cr, dst.Stagger) {
		return fmt.Errorf(
			"Source bounds %v, converted to the destination staggering %v, "+
				"cannot be coarsened by a ratio of %v.", conv, dst.Stagger, cr,
		)
	}
	crse := conv.Coarsen(cr, dst.Stagger)

	target := dst
	if crse != dst.Valid {
		target = field.New(crse, ngrow, ncomp, dst.Stagger)
	} else {
		for i := 0; i < 3; i++ {
			if ngrow[i] > dst.Ghost[i] {
				return fmt.Errorf(
					"%d guard cells requested along axis %d, but the "+
						"destination only has %d.", ngrow[i], i, dst.Ghost[i],
				)
			}
		}
	}

	need := FineBounds(target.Grown(ngrow), src.Stagger, dst.Stagger, cr)
	if !src.Grid.CellBounds.ContainsBounds(&need) {
		return fmt.Errorf(
			"Coarsening reads source points in %v, but the source array "+
				"only covers %v. Add ghost cells to the source.",
			need, src.Grid.CellBounds,
		)
	}

	if target == dst {
		Loop(dst, src, dcomp, scomp, ncomp, ngrow, cr)
		return nil
	}

	Loop(target, src, 0, scomp, ncomp, ngrow, cr)
	dst.Copy(target, 0, dcomp, ncomp)
	return nil
}

func checkArgs(
	dst, src *field.Array, dcomp, scomp, ncomp int, ngrow, ratio [3]int,
) ([3]int, error) {
	if err := src.Check(); err != nil {
		return ratio, fmt.Errorf("Invalid source array: %s", err.Error())
	}
	if err := dst.Check(); err != nil {
		return ratio, fmt.Errorf("Invalid destination array: %s", err.Error())
	}

	for i := 0; i < 3; i++ {
		if ratio[i] < 0 {
			return ratio, fmt.Errorf(
				"Coarsening ratio along axis %d is %d, but must be positive.",
				i, ratio[i],
			)
		} else if ngrow[i] < 0 {
			return ratio, fmt.Errorf(
				"%d guard cells requested along axis %d, must be "+
					"non-negative.", ngrow[i], i,
			)
		}
	}

	if ncomp <= 0 {
		return ratio, fmt.Errorf(
			"Asked to coarsen %d components, must be at least 1.", ncomp,
		)
	} else if scomp < 0 || scomp+ncomp > src.NComp {
		return ratio, fmt.Errorf(
			"Source components [%d, %d) requested, but source has %d.",
			scomp, scomp+ncomp, src.NComp,
		)
	} else if dcomp < 0 || dcomp+ncomp > dst.NComp {
		return ratio, fmt.Errorf(
			"Destination components [%d, %d) requested, but destination "+
				"has %d.", dcomp, dcomp+ncomp, dst.NComp,
		)
	}

	return normRatio(ratio), nil
}

func normRatio(ratio [3]int) [3]int {
	for i := range ratio {
		if ratio[i] == 0 {
			ratio[i] = 1
		}
	}
	return ratio
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
