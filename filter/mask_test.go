package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/geom"
)

func lineParticles(n int) []picdiag.Particle {
	ps := make([]picdiag.Particle, n)
	for i := range ps {
		ps[i].Id = int64(i)
		ps[i].Xs = [3]float64{float64(i), 0, 0}
	}
	return ps
}

func TestMaskCombines(t *testing.T) {
	ps := lineParticles(100)
	fs := []Filter{
		NewUniform(true, 5),
		NewGeometry(true, geom.Box{Hi: [3]float64{50, 0, 0}}),
	}

	mask := Mask(ps, fs, 1)
	require.Len(t, mask, len(ps))
	for i := range ps {
		exp := i%5 == 0 && i <= 50
		if mask[i] != exp {
			t.Errorf("Expected particle %d to have mask %v, got %v.",
				i, exp, mask[i])
		}
	}

	kept := Compact(ps, mask)
	assert.Equal(t, 11, len(kept))
	assert.Equal(t, Count(mask), len(kept))
	for i, p := range kept {
		assert.Equal(t, int64(5*i), p.Id)
	}
}

func TestMaskWorkerIndependence(t *testing.T) {
	ps := lineParticles(3*ChunkSize + 17)
	fs := []Filter{NewRandom(true, 0.3), NewUniform(false, 0)}

	old := picdiag.NumCores
	defer func() { picdiag.NumCores = old }()

	picdiag.NumCores = 1
	m1 := Mask(ps, fs, 99)
	picdiag.NumCores = 3
	m2 := Mask(ps, fs, 99)
	picdiag.NumCores = 64
	m3 := Mask(ps, fs, 99)
	assert.Equal(t, m1, m2)
	assert.Equal(t, m1, m3)

	frac := float64(Count(m1)) / float64(len(ps))
	assert.InDelta(t, 0.3, frac, 0.03)

	other := Mask(ps, fs, 100)
	assert.NotEqual(t, m1, other)
}

func TestMaskInactive(t *testing.T) {
	ps := lineParticles(10)
	fs := []Filter{
		NewRandom(false, 0), NewUniform(false, 0),
		NewGeometry(false, geom.Box{}), NewParser(false, nil, 0, 0, Natural),
	}
	assert.Equal(t, 10, Count(Mask(ps, fs, 0)))
	assert.Equal(t, 10, Count(Mask(ps, nil, 0)))
	assert.Empty(t, Mask(nil, fs, 0))
}

func BenchmarkMask(b *testing.B) {
	ps := lineParticles(1 << 16)
	fs := []Filter{
		NewRandom(true, 0.5), NewUniform(true, 3),
		NewGeometry(true, geom.Box{Hi: [3]float64{1 << 15, 1, 1}}),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Mask(ps, fs, uint64(i))
	}
}
