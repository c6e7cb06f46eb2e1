/*package picdiag contains the particle record shared by the filtering and
coarsening packages of the picdiag diagnostics tools.
*/
package picdiag

import (
	"runtime"
)

// NumCores is the number of goroutines the filtering and coarsening
// kernels split their work across.
var NumCores = runtime.NumCPU()

// Indices into Particle.RData.
const (
	W = iota // macroparticle weight
	Ux
	Uy
	Uz
	NAttrs
)

// Particle is a single simulation macroparticle. Momenta are stored in
// RData in whatever units the producing code used; see filter.InputUnits.
type Particle struct {
	Xs    [3]float64
	RData [NAttrs]float64
	Id    int64
}

func (p *Particle) ID() int64 { return p.Id }
func (p *Particle) Pos() [3]float64 { return p.Xs }
func (p *Particle) Attr(i int) float64 { return p.RData[i] }
