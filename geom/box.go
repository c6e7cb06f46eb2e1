package geom

import (
	"fmt"
)

// Box is an axis-aligned region of physical space. Both faces are part of
// the box.
type Box struct {
	Lo, Hi [3]float64
}

// Contains returns true if x lies inside b or on its boundary.
func (b *Box) Contains(x [3]float64) bool {
	return !(x[0] < b.Lo[0] || x[0] > b.Hi[0] ||
		x[1] < b.Lo[1] || x[1] > b.Hi[1] ||
		x[2] < b.Lo[2] || x[2] > b.Hi[2])
}

// Check returns an error if b has a lower bound above its upper bound on
// some axis.
func (b *Box) Check() error {
	axes := [3]string{"X", "Y", "Z"}
	for i := 0; i < 3; i++ {
		if b.Lo[i] > b.Hi[i] {
			return fmt.Errorf(
				"%s bounds of box are [%g, %g], but the lower bound must "+
					"not be larger than the upper bound.",
				axes[i], b.Lo[i], b.Hi[i],
			)
		}
	}
	return nil
}
