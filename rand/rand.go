/*package rand contains the xorshift generators used for stochastic particle
selection. Generators are not thread safe: every concurrent work item needs
its own, which is what Stream is for.
*/
package rand

import (
	"math"
)

var (
	xorshiftMaxUint = float64(math.MaxUint32)
)

// Generator is an xorshift128 random number generator.
type Generator struct {
	w, x, y, z uint32
}

// New creates a Generator from a seed. Every seed, including 0, gives a
// valid generator.
func New(seed uint64) *Generator {
	gen := &Generator{}
	gen.Seed(seed)
	return gen
}

// Seed resets the state of gen.
func (gen *Generator) Seed(seed uint64) {
	s := seed
	a, b := splitMix64(&s), splitMix64(&s)
	gen.w, gen.x = uint32(a), uint32(a>>32)
	gen.y, gen.z = uint32(b), uint32(b>>32)

	// The all-zero state is a fixed point of xorshift.
	if gen.w|gen.x|gen.y|gen.z == 0 {
		gen.w, gen.x, gen.y, gen.z = 88675123, 123456789, 362436069, 521288629
	}
}

// Stream returns the generator for the given chunk of work under a global
// seed. Streams for different chunks are statistically independent and
// every (seed, chunk) pair always gives the same sequence.
func Stream(seed uint64, chunk int) *Generator {
	s := seed ^ 0x9e3779b97f4a7c15
	mix := splitMix64(&s) + uint64(chunk)*0xbf58476d1ce4e5b9
	return New(mix)
}

func (gen *Generator) next() uint32 {
	t := gen.x ^ (gen.x << 11)
	gen.x, gen.y, gen.z = gen.y, gen.z, gen.w
	gen.w = gen.w ^ (gen.w >> 19) ^ (t ^ (t >> 8))
	return gen.w
}

// Uniform generates a single random number in the range [0, 1).
func (gen *Generator) Uniform() float64 {
	return float64(gen.next()) / (xorshiftMaxUint + 1)
}

// UniformSequence generates one random number in the range [0, 1) for each
// element of target and writes them to it.
func (gen *Generator) UniformSequence(target []float64) {
	for i := range target {
		target[i] = gen.Uniform()
	}
}

// splitMix64 advances s and returns the next splitmix64 output. It is only
// used to spread seeds across the xorshift state.
func splitMix64(s *uint64) uint64 {
	*s += 0x9e3779b97f4a7c15
	z := *s
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
