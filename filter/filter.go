/*package filter contains the predicates used to decide which particles are
kept by a diagnostic. Every predicate is immutable after construction and
can be called concurrently, as long as each caller passes its own Source.
*/
package filter

import (
	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/geom"
	"github.com/phil-mansfield/picdiag/phys"
)

// Particle is the read-only view of a particle that predicates use.
// *picdiag.Particle satisfies it.
type Particle interface {
	ID() int64
	Pos() [3]float64
	Attr(i int) float64
}

// Source supplies uniform random draws in [0, 1). *rand.Generator satisfies
// it.
type Source interface {
	Uniform() float64
}

// Filter is a particle predicate. Select returns true if p is kept.
type Filter interface {
	Select(p Particle, src Source) bool
}

// Evaluator is a compiled expression of time, position and normalized
// momentum. *expr.Program satisfies it.
type Evaluator interface {
	Eval(t, x, y, z, ux, uy, uz float64) float64
}

// EvaluatorFunc lets an ordinary function be used as an Evaluator.
type EvaluatorFunc func(t, x, y, z, ux, uy, uz float64) float64

func (f EvaluatorFunc) Eval(t, x, y, z, ux, uy, uz float64) float64 {
	return f(t, x, y, z, ux, uy, uz)
}

// InputUnits records which units particle momenta are stored in.
type InputUnits int

const (
	// Natural momenta are proper velocities, gamma*v.
	Natural InputUnits = iota
	// SI momenta are mass*gamma*v.
	SI
)

func (u InputUnits) String() string {
	switch u {
	case Natural:
		return "Natural"
	case SI:
		return "SI"
	}
	return "Unknown"
}

// Random selects each particle with probability Fraction.
type Random struct {
	active   bool
	fraction float64
}

// NewRandom creates a Random predicate. fraction should lie in [0, 1].
func NewRandom(active bool, fraction float64) *Random {
	return &Random{active, fraction}
}

// Select draws exactly one number from src when r is active and none
// otherwise.
func (r *Random) Select(p Particle, src Source) bool {
	return !r.active || src.Uniform() < r.fraction
}

// Uniform selects every particle whose ID is a multiple of its stride.
type Uniform struct {
	active bool
	stride int64
}

// NewUniform creates a Uniform predicate. stride must be positive when
// active is true.
func NewUniform(active bool, stride int) *Uniform {
	return &Uniform{active, int64(stride)}
}

func (u *Uniform) Select(p Particle, src Source) bool {
	return !u.active || p.ID()%u.stride == 0
}

// Geometry selects particles inside a box. Particles on a face of the box
// are selected.
type Geometry struct {
	active bool
	box    geom.Box
}

// NewGeometry creates a Geometry predicate.
func NewGeometry(active bool, box geom.Box) *Geometry {
	return &Geometry{active, box}
}

func (g *Geometry) Select(p Particle, src Source) bool {
	if !g.active {
		return true
	}
	return g.box.Contains(p.Pos())
}

// Parser selects particles for which an expression of
// (t, x, y, z, ux, uy, uz) is non-zero. Momenta are passed in units of c,
// i.e. as beta*gamma.
//
// The time is fixed when the Parser is created. Use WithTime to evaluate
// at a later step.
type Parser struct {
	active bool
	ev     Evaluator
	mass   float64
	t      float64
	units  InputUnits
}

// NewParser creates a Parser predicate. mass is the species mass and is
// only used when units is SI.
func NewParser(
	active bool, ev Evaluator, mass, t float64, units InputUnits,
) *Parser {
	return &Parser{active: active, ev: ev, mass: mass, t: t, units: units}
}

// WithTime returns a copy of p which evaluates its expression at time t.
func (p *Parser) WithTime(t float64) *Parser {
	out := *p
	out.t = t
	return &out
}

// Time returns the time p evaluates its expression at.
func (p *Parser) Time() float64 { return p.t }

func (p *Parser) Select(pt Particle, src Source) bool {
	if !p.active {
		return true
	}

	x := pt.Pos()
	ux := pt.Attr(picdiag.Ux) / phys.C
	uy := pt.Attr(picdiag.Uy) / phys.C
	uz := pt.Attr(picdiag.Uz) / phys.C
	if p.units == SI {
		ux /= p.mass
		uy /= p.mass
		uz /= p.mass
	}

	return p.ev.Eval(p.t, x[0], x[1], x[2], ux, uy, uz) != 0
}
