package expr

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/picdiag/filter"
)

func TestEval(t *testing.T) {
	table := []struct {
		src string
		v   [7]float64
		exp float64
	}{
		{"x - 1.0", [7]float64{0, 2, 0, 0, 0, 0, 0}, 1},
		{"x - 1.0", [7]float64{0, 1, 0, 0, 0, 0, 0}, 0},
		{"t*2 + z", [7]float64{3, 0, 0, 1, 0, 0, 0}, 7},
		{"x > 0 && uz > 2", [7]float64{0, 1, 0, 0, 0, 0, 3}, 1},
		{"x > 0 && uz > 2", [7]float64{0, 1, 0, 0, 0, 0, 1}, 0},
		{"sqrt(ux*ux + uy*uy)", [7]float64{0, 0, 0, 0, 3, 4, 0}, 5},
		{"pow(y, 3)", [7]float64{0, 0, 2, 0, 0, 0, 0}, 8},
		{"abs(y)", [7]float64{0, 0, -2.5, 0, 0, 0, 0}, 2.5},
		{"exp(log(x))", [7]float64{0, 4, 0, 0, 0, 0, 0}, 4},
		{"cos(pi)", [7]float64{}, -1},
		{"clight", [7]float64{}, 299792458},
		{"3", [7]float64{}, 3},
		{"int(x) % int(y) == 0", [7]float64{0, 4, 2, 0, 0, 0, 0}, 1},
		{"int(x) % int(y) == 0", [7]float64{0, 5, 2, 0, 0, 0, 0}, 0},
		{"int(x) % int(y) == 0", [7]float64{}, 0},
	}

	for i, test := range table {
		p, err := Compile(test.src)
		require.NoError(t, err, test.src)
		v := test.v
		got := p.Eval(v[0], v[1], v[2], v[3], v[4], v[5], v[6])
		if math.Abs(got-test.exp) > 1e-12 {
			t.Errorf("%d) Expected '%s' to give %g, got %g.",
				i+1, test.src, test.exp, got)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{
		"x +", "w > 0", "\"text\"", "sqrt(1, 2)", "pow(x)",
		"[x, y]", "x > 0 ? \"a\" : \"b\"",
	} {
		_, err := Compile(src)
		assert.Error(t, err, src)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "x*y", MustCompile("x*y").String())
	assert.Panics(t, func() { MustCompile("x +") })
}

func TestConcurrentEval(t *testing.T) {
	p := MustCompile("x*x + y")
	wg := sync.WaitGroup{}
	errs := make([]int, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				x := float64(i)
				if p.Eval(0, x, float64(w), 0, 0, 0, 0) != x*x+float64(w) {
					errs[w]++
				}
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, make([]int, 8), errs)
}

func TestParserIntegration(t *testing.T) {
	var ev filter.Evaluator = MustCompile("x - 1.0")
	pr := filter.NewParser(true, ev, 1, 0, filter.Natural)
	assert.True(t, pr.Select(&testParticle{x: 2}, nil))
	assert.False(t, pr.Select(&testParticle{x: 1}, nil))
}

type testParticle struct{ x float64 }

func (p *testParticle) ID() int64          { return 0 }
func (p *testParticle) Pos() [3]float64    { return [3]float64{p.x, 0, 0} }
func (p *testParticle) Attr(i int) float64 { return 0 }

func BenchmarkEval(b *testing.B) {
	p := MustCompile("x > 0 && sqrt(ux*ux + uy*uy + uz*uz) > 2.5")
	for i := 0; i < b.N; i++ {
		p.Eval(0, 1, 0, 0, 1, 2, 3)
	}
}
