/*package expr compiles the particle selection expressions used by
filter.Parser. An expression is a function of the time t, the position
x, y, z and the momentum ux, uy, uz in units of c. For example:

    x > 0 && sqrt(ux*ux + uy*uy + uz*uz) > 2.5

Boolean results are converted to 1 and 0.
*/
package expr

import (
	"fmt"
	"math"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/phil-mansfield/picdiag/phys"
)

type env struct {
	T      float64 `expr:"t"`
	X      float64 `expr:"x"`
	Y      float64 `expr:"y"`
	Z      float64 `expr:"z"`
	Ux     float64 `expr:"ux"`
	Uy     float64 `expr:"uy"`
	Uz     float64 `expr:"uz"`
	Pi     float64 `expr:"pi"`
	CLight float64 `expr:"clight"`
}

// Program is a compiled expression. It is safe for concurrent use.
type Program struct {
	src  string
	prog *vm.Program
}

type unary func(float64) float64

var unaryFuncs = map[string]unary{
	"sqrt": math.Sqrt,
	"exp":  math.Exp,
	"log":  math.Log,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
}

// Compile parses and type checks src. It returns an error if src is not a
// valid expression, uses an unknown variable, calls a function with the
// wrong number of arguments, or does not have a numeric or boolean type.
// Compile never runs src, so errors which only happen for some particles
// are left to Eval.
func Compile(src string) (*Program, error) {
	opts := []expr.Option{expr.Env(env{})}
	for name, f := range unaryFuncs {
		opts = append(opts, expr.Function(
			name, wrapUnary(name, f), new(func(float64) float64),
		))
	}
	opts = append(opts, expr.Function(
		"pow", pow, new(func(float64, float64) float64),
	))

	prog, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("Could not compile expression '%s': %s",
			src, err.Error())
	}

	switch typ := prog.Node().Type(); typ.Kind() {
	case reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Interface:
	default:
		return nil, fmt.Errorf("Expression '%s' has type %s, not a number.",
			src, typ)
	}
	return &Program{src, prog}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// String returns the source of p.
func (p *Program) String() string { return p.src }

// Eval evaluates p. Evaluation errors, such as an integer division by
// zero, give 0.
func (p *Program) Eval(t, x, y, z, ux, uy, uz float64) float64 {
	out, err := expr.Run(p.prog, newEnv(t, x, y, z, ux, uy, uz))
	if err != nil {
		return 0
	}
	v, err := toFloat(out)
	if err != nil {
		return 0
	}
	return v
}

func newEnv(t, x, y, z, ux, uy, uz float64) env {
	return env{
		T: t, X: x, Y: y, Z: z, Ux: ux, Uy: uy, Uz: uz,
		Pi: math.Pi, CLight: phys.C,
	}
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("evaluates to %v of type %T, not a number.", v, v)
}

func wrapUnary(
	name string, f unary,
) func(params ...interface{}) (interface{}, error) {
	return func(params ...interface{}) (interface{}, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("%s takes 1 argument, got %d.",
				name, len(params))
		}
		x, err := toFloat(params[0])
		if err != nil {
			return nil, fmt.Errorf("Argument of %s %s", name, err.Error())
		}
		return f(x), nil
	}
}

func pow(params ...interface{}) (interface{}, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("pow takes 2 arguments, got %d.", len(params))
	}
	x, err := toFloat(params[0])
	if err != nil {
		return nil, fmt.Errorf("Base of pow %s", err.Error())
	}
	y, err := toFloat(params[1])
	if err != nil {
		return nil, fmt.Errorf("Exponent of pow %s", err.Error())
	}
	return math.Pow(x, y), nil
}
