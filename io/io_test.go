package io

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/field"
	"github.com/phil-mansfield/picdiag/filter"
	"github.com/phil-mansfield/picdiag/geom"
	"github.com/phil-mansfield/picdiag/phys"
	"github.com/phil-mansfield/picdiag/rand"
)

func TestFieldRoundTrip(t *testing.T) {
	valid := geom.CellBounds{Origin: [3]int{-2, 0, 5}, Width: [3]int{4, 3, 6}}
	a := field.New(valid, [3]int{1, 0, 2}, 2,
		[3]int{geom.Node, geom.Cell, geom.Node})
	rand.New(12).UniformSequence(a.Data)
	a.Data[3] = math.Inf(-1)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteField(buf, a))

	b, err := ReadField(buf)
	require.NoError(t, err)
	assert.Equal(t, a.Valid, b.Valid)
	assert.Equal(t, a.Ghost, b.Ghost)
	assert.Equal(t, a.Stagger, b.Stagger)
	assert.Equal(t, a.NComp, b.NComp)
	assert.Equal(t, a.Data, b.Data)
	assert.Equal(t, 0, buf.Len())
}

func TestFieldCorrupt(t *testing.T) {
	valid := geom.CellBounds{Width: [3]int{2, 2, 2}}
	a := field.New(valid, [3]int{}, 1, [3]int{})

	buf := &bytes.Buffer{}
	require.NoError(t, WriteField(buf, a))
	data := buf.Bytes()

	_, err := ReadField(bytes.NewReader(data[:len(data)-1]))
	assert.Error(t, err, "truncated payload")

	bad := append([]byte{}, data...)
	bad[8] ^= 0xff
	_, err = ReadField(bytes.NewReader(bad))
	assert.Error(t, err, "bad magic number")

	bad = append([]byte{}, data...)
	bad[0] = 7
	_, err = ReadField(bytes.NewReader(bad))
	assert.Error(t, err, "bad endianness flag")
}

// withHeader returns a copy of the field file data with its header modified
// by f.
func withHeader(
	t *testing.T, data []byte, f func(hd *FieldHeader),
) []byte {
	hd, order, err := ReadFieldHeader(bytes.NewReader(data))
	require.NoError(t, err)
	f(hd)

	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, order, DefaultEndiannessFlag))
	require.NoError(t, binary.Write(buf, order, int32(binary.Size(hd))))
	require.NoError(t, binary.Write(buf, order, hd))
	buf.Write(data[8+binary.Size(hd):])
	return buf.Bytes()
}

func TestFieldBadHeader(t *testing.T) {
	valid := geom.CellBounds{Width: [3]int{2, 2, 2}}
	a := field.New(valid, [3]int{1, 1, 1}, 1, [3]int{})

	buf := &bytes.Buffer{}
	require.NoError(t, WriteField(buf, a))
	data := buf.Bytes()

	table := []struct {
		name string
		f    func(hd *FieldHeader)
	}{
		{"negative compressed size", func(hd *FieldHeader) {
			hd.CompressedSize = -1
		}},
		{"huge compressed size", func(hd *FieldHeader) {
			hd.CompressedSize = 1 << 40
		}},
		{"negative width", func(hd *FieldHeader) { hd.Width[0] = -3 }},
		{"zero width", func(hd *FieldHeader) { hd.Width[2] = 0 }},
		{"negative ghost", func(hd *FieldHeader) { hd.Ghost[1] = -2 }},
		{"bad staggering", func(hd *FieldHeader) { hd.Stagger[2] = 2 }},
		{"no components", func(hd *FieldHeader) { hd.NComp = 0 }},
		{"negative components", func(hd *FieldHeader) { hd.NComp = -4 }},
		{"too many components", func(hd *FieldHeader) { hd.NComp = 1 << 40 }},
		{"too many values", func(hd *FieldHeader) {
			hd.Width = [3]int64{1 << 20, 1 << 20, 1 << 20}
		}},
	}

	for _, test := range table {
		bad := withHeader(t, data, test.f)
		assert.NotPanics(t, func() {
			_, err := ReadField(bytes.NewReader(bad))
			assert.Error(t, err, test.name)
		}, test.name)
	}

	same := withHeader(t, data, func(*FieldHeader) {})
	b, err := ReadField(bytes.NewReader(same))
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestParticlesFromColumns(t *testing.T) {
	cols := [][]float64{
		{4, 9}, {1, 2}, {3, 4}, {5, 6}, {0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6},
	}
	ps, err := ParticlesFromColumns(cols)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, int64(9), ps[1].ID())
	assert.Equal(t, [3]float64{2, 4, 6}, ps[1].Pos())
	assert.Equal(t, 0.6, ps[1].Attr(picdiag.Uz))
	assert.Equal(t, 1.0, ps[0].Attr(picdiag.W))

	cols = append(cols, []float64{7, 8})
	ps, err = ParticlesFromColumns(cols)
	require.NoError(t, err)
	assert.Equal(t, 8.0, ps[1].Attr(picdiag.W))

	_, err = ParticlesFromColumns(cols[:3])
	assert.Error(t, err)
	cols[2] = cols[2][:1]
	_, err = ParticlesFromColumns(cols)
	assert.Error(t, err)
}

func TestWriteParticles(t *testing.T) {
	ps := []picdiag.Particle{{Id: 3, Xs: [3]float64{1, 2.5, -3}}}
	ps[0].RData = [picdiag.NAttrs]float64{2, 0.25, 0, 1e-7}

	buf := &bytes.Buffer{}
	require.NoError(t, WriteParticles(buf, ps))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "3 1 2.5 -3 0.25 0 1e-07 2", lines[1])
}

func TestFilterConfig(t *testing.T) {
	text := `[Filter]
Input = in.txt
Output = out.txt
RandomFraction = 0.5
UniformStride = 3
XMin = 0
XMax = 10
ParserExpression = x > 1
Units = SI
Mass = 2
Time = 4
Seed = 17
`
	con, err := ParseFilterConfig(text)
	require.NoError(t, err)
	assert.Equal(t, "in.txt", con.Input)
	assert.Equal(t, int64(17), con.Seed)
	assert.True(t, con.ValidBox())
	assert.Equal(t, math.Inf(+1), con.YMax)

	units, err := con.InputUnits()
	require.NoError(t, err)
	assert.Equal(t, filter.SI, units)

	fs, err := con.Filters()
	require.NoError(t, err)
	require.Len(t, fs, 4)
	assert.Equal(t, 4.0, fs[3].(*filter.Parser).Time())

	p := &picdiag.Particle{Id: 6, Xs: [3]float64{2, 100, -100}}
	src := rand.New(0)
	assert.True(t, fs[1].Select(p, src))
	assert.True(t, fs[2].Select(p, src))
	assert.True(t, fs[3].Select(p, src))

	p.Xs[0] = 11
	assert.False(t, fs[2].Select(p, src))
}

func TestFilterConfigDefaults(t *testing.T) {
	con, err := ParseFilterConfig("[Filter]\nInput = a\nOutput = b\n")
	require.NoError(t, err)
	assert.False(t, con.ValidRandomFraction())
	assert.False(t, con.ValidUniformStride())
	assert.False(t, con.ValidBox())
	assert.False(t, con.ValidParserExpression())

	fs, err := con.Filters()
	require.NoError(t, err)
	p := &picdiag.Particle{Id: 5, Xs: [3]float64{1e30, 0, 0}}
	for i, f := range fs {
		assert.True(t, f.Select(p, rand.New(1)), "filter %d", i)
	}
}

func TestSpeciesMass(t *testing.T) {
	head := "[Filter]\nInput = a\nOutput = b\nParserExpression = ux\n"
	con, err := ParseFilterConfig(head + "Units = SI\nSpecies = Proton\n")
	require.NoError(t, err)
	assert.Equal(t, phys.ProtonMass, con.SpeciesMass())

	con, err = ParseFilterConfig(head + "Species = electron\nMass = 3\n")
	require.NoError(t, err)
	assert.Equal(t, 3.0, con.SpeciesMass())

	_, err = ParseFilterConfig(head + "Units = SI\nSpecies = Muon\n")
	assert.Error(t, err)
}

func TestFilterConfigErrors(t *testing.T) {
	head := "[Filter]\nInput = a\nOutput = b\n"
	for _, body := range []string{
		"RandomFraction = 1.5",
		"UniformStride = -2",
		"XMin = 2\nXMax = 1",
		"Units = cgs",
		"ParserExpression = x\nUnits = SI",
		"Unknown = 3",
	} {
		_, err := ParseFilterConfig(head + body + "\n")
		assert.Error(t, err, body)
	}

	_, err := ParseFilterConfig("[Filter]\nOutput = b\n")
	assert.Error(t, err, "missing Input")

	con, err := ParseFilterConfig(head + "ParserExpression = x +\n")
	require.NoError(t, err)
	_, err = con.Filters()
	assert.Error(t, err, "bad expression")
}

func TestCoarsenConfig(t *testing.T) {
	text := `[Coarsen]
Input = fine.field
Output = coarse.field
RatioX = 2
RatioY = 3
StaggerY = node
GuardCells = 2
Components = 1
`
	con, err := ParseCoarsenConfig(text)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 3, 1}, con.Ratio())
	assert.Equal(t, [3]int{2, 2, 2}, con.GuardCellsVec())
	assert.False(t, con.ValidGuardCellsVec())

	stag, err := con.Stagger([3]int{geom.Node, geom.Cell, geom.Node})
	require.NoError(t, err)
	assert.Equal(t, [3]int{geom.Node, geom.Node, geom.Node}, stag)

	vec := text + "GuardCellsX = 1\nGuardCellsY = 0\nGuardCellsZ = 3\n"
	con, err = ParseCoarsenConfig(vec)
	require.NoError(t, err)
	assert.True(t, con.ValidGuardCellsVec())
	assert.Equal(t, [3]int{1, 0, 3}, con.GuardCellsVec())
}

func TestCoarsenConfigErrors(t *testing.T) {
	head := "[Coarsen]\nInput = a\nOutput = b\n"
	for _, body := range []string{
		"RatioX = 0",
		"GuardCells = -1",
		"GuardCellsX = 1",
		"StaggerZ = Edge",
		"Components = -1",
	} {
		_, err := ParseCoarsenConfig(head + body + "\n")
		assert.Error(t, err, body)
	}
}

func TestExampleConfigs(t *testing.T) {
	_, err := ParseFilterConfig(ExampleFilterFile)
	assert.NoError(t, err)
	_, err = ParseCoarsenConfig(ExampleCoarsenFile)
	assert.NoError(t, err)
}
