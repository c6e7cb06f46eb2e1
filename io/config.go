package io

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/picdiag/expr"
	"github.com/phil-mansfield/picdiag/filter"
	"github.com/phil-mansfield/picdiag/geom"
	"github.com/phil-mansfield/picdiag/phys"
)

const (
	ExampleFilterFile = `[Filter]

#######################
# Required Parameters #
#######################

# Text file containing one particle per line. The columns are
# id x y z ux uy uz, optionally followed by the particle weight.
Input = path/to/particles.txt
# Text file which the selected particles will be written to.
Output = path/to/selected.txt

#######################
# Optional Parameters #
#######################

# Set to true if Input has an eighth column containing particle weights.
# Weighted = false

# A particle is kept only if it passes every filter which is turned on.
# Filters which are not set are turned off.

# Keep each particle with this probability. Must be in [0, 1]. The random
# draws only depend on Seed, so reruns select the same particles.
# RandomFraction = 0.1
# Seed = 0

# Keep particles whose ID is a multiple of UniformStride.
# UniformStride = 10

# Keep particles inside the box [XMin, XMax] x [YMin, YMax] x [ZMin, ZMax].
# Particles on the faces of the box are kept. Bounds that are not set are
# unbounded.
# XMin = -1e-5
# XMax = 1e-5
# ZMin = 0

# Keep particles for which this expression is non-zero. It may use the time
# t, the position x, y, z and the momentum ux, uy, uz in units of c. The
# constants pi and clight and the functions sqrt, exp, log, sin, cos, tan,
# abs and pow are available.
# ParserExpression = x > 0 && sqrt(ux*ux + uy*uy + uz*uz) > 2.5
# Time = 0

# Units of the momentum columns: Natural (gamma*v) or SI (mass*gamma*v).
# Mass is the species mass in kg and is needed for SI momenta. Species can
# be set to Electron or Proton instead of giving Mass.
# Units = Natural
# Mass = 9.1093837015e-31
# Species = Electron

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleCoarsenFile = `[Coarsen]

#######################
# Required Parameters #
#######################

# Field file to coarsen.
Input = path/to/fine.field
# Field file which the coarsened field will be written to.
Output = path/to/coarse.field

# Coarsening ratio along each axis. A ratio of 1 turns coarsening off along
# that axis.
RatioX = 2
RatioY = 2
RatioZ = 1

#######################
# Optional Parameters #
#######################

# Staggering of the output field along each axis: Cell or Node. Defaults to
# the staggering of the input field.
# StaggerX = Node
# StaggerY = Cell
# StaggerZ = Cell

# Number of guard cells of the output field which are filled, on every axis.
# The input field must have enough guard cells to support this.
# GuardCells = 0

# Alternatively, the number of guard cells along each axis. If any of these
# are set, all three must be.
# GuardCellsX = 1
# GuardCellsY = 1
# GuardCellsZ = 0

# Range of components to coarsen. Components = 0 coarsens every component
# from SourceComponent onwards. They are written starting at DestComponent.
# SourceComponent = 0
# DestComponent = 0
# Components = 0

# Writes a plot comparing the input and output fields along the x axis.
# PlotFile = lineout.png

# ProfileFile = prof.out
# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type FilterConfig struct {
	SharedConfig

	// Optional
	Weighted bool

	RandomFraction float64
	Seed           int64

	UniformStride int

	XMin, XMax, YMin, YMax, ZMin, ZMax float64

	ParserExpression string
	Time, Mass       float64
	Units, Species   string
}

type FilterWrapper struct {
	Filter FilterConfig
}

func DefaultFilterWrapper() *FilterWrapper {
	con := FilterConfig{}
	con.RandomFraction = -1
	con.XMin, con.YMin, con.ZMin = math.Inf(-1), math.Inf(-1), math.Inf(-1)
	con.XMax, con.YMax, con.ZMax = math.Inf(+1), math.Inf(+1), math.Inf(+1)
	con.Units = "Natural"
	return &FilterWrapper{con}
}

func (con *FilterConfig) ValidRandomFraction() bool {
	return con.RandomFraction >= 0 && con.RandomFraction <= 1
}
func (con *FilterConfig) ValidUniformStride() bool {
	return con.UniformStride > 0
}
func (con *FilterConfig) ValidParserExpression() bool {
	return strings.Trim(con.ParserExpression, " ") != ""
}
func (con *FilterConfig) ValidMass() bool {
	return con.SpeciesMass() > 0
}

// SpeciesMass returns Mass if it is set and otherwise the mass of the named
// Species. It returns 0 if neither is known.
func (con *FilterConfig) SpeciesMass() float64 {
	if con.Mass != 0 {
		return con.Mass
	}
	switch strings.ToLower(strings.Trim(con.Species, " ")) {
	case "electron", "positron":
		return phys.ElectronMass
	case "proton":
		return phys.ProtonMass
	}
	return 0
}
func (con *FilterConfig) ValidBox() bool {
	for _, x := range []float64{
		con.XMin, con.XMax, con.YMin, con.YMax, con.ZMin, con.ZMax,
	} {
		if !math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// Box returns the box given by the bounds in con.
func (con *FilterConfig) Box() geom.Box {
	return geom.Box{
		Lo: [3]float64{con.XMin, con.YMin, con.ZMin},
		Hi: [3]float64{con.XMax, con.YMax, con.ZMax},
	}
}

// InputUnits parses the Units variable.
func (con *FilterConfig) InputUnits() (filter.InputUnits, error) {
	switch strings.ToLower(strings.Trim(con.Units, " ")) {
	case "natural", "warpx":
		return filter.Natural, nil
	case "si":
		return filter.SI, nil
	}
	return filter.Natural, fmt.Errorf(
		"Units must be one of [Natural | SI]. '%s' is not recognized.",
		con.Units,
	)
}

// CheckInit returns an error if any of the parameters in con are set to
// invalid values.
func (con *FilterConfig) CheckInit() error {
	if !con.ValidInput() {
		return fmt.Errorf("Need to specify an Input file for Filter.")
	} else if !con.ValidOutput() {
		return fmt.Errorf("Need to specify an Output file for Filter.")
	}

	if con.RandomFraction != -1 && !con.ValidRandomFraction() {
		return fmt.Errorf(
			"RandomFraction must be in range [0, 1], but is %g.",
			con.RandomFraction,
		)
	} else if con.UniformStride < 0 {
		return fmt.Errorf(
			"UniformStride must be positive, but is %d.", con.UniformStride,
		)
	}

	box := con.Box()
	if err := box.Check(); err != nil {
		return err
	}

	units, err := con.InputUnits()
	if err != nil {
		return err
	}
	if con.ValidParserExpression() && units == filter.SI && !con.ValidMass() {
		return fmt.Errorf(
			"Need to specify a positive Mass or a known Species to use "+
				"ParserExpression with SI units.",
		)
	}

	return nil
}

// Filters returns one predicate per filter kind. Filters which are not set
// in con are returned inactive.
func (con *FilterConfig) Filters() ([]filter.Filter, error) {
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	units, _ := con.InputUnits()

	var ev filter.Evaluator
	if con.ValidParserExpression() {
		prog, err := expr.Compile(con.ParserExpression)
		if err != nil {
			return nil, err
		}
		ev = prog
	}

	fs := []filter.Filter{
		filter.NewRandom(con.ValidRandomFraction(), con.RandomFraction),
		filter.NewUniform(con.ValidUniformStride(), con.UniformStride),
		filter.NewGeometry(con.ValidBox(), con.Box()),
		filter.NewParser(con.ValidParserExpression(), ev,
			con.SpeciesMass(), con.Time, units),
	}
	return fs, nil
}

// ReadFilterConfig reads a [Filter] config file.
func ReadFilterConfig(fname string) (*FilterConfig, error) {
	wrap := DefaultFilterWrapper()
	return checkFilter(wrap, gcfg.ReadFileInto(wrap, fname))
}

// ParseFilterConfig reads a [Filter] config from a string.
func ParseFilterConfig(text string) (*FilterConfig, error) {
	wrap := DefaultFilterWrapper()
	return checkFilter(wrap, gcfg.ReadStringInto(wrap, text))
}

func checkFilter(wrap *FilterWrapper, err error) (*FilterConfig, error) {
	if err != nil {
		return nil, err
	}
	if err := wrap.Filter.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Filter, nil
}

type CoarsenConfig struct {
	SharedConfig

	// Required
	RatioX, RatioY, RatioZ int

	// Optional
	StaggerX, StaggerY, StaggerZ string

	GuardCells int

	GuardCellsX, GuardCellsY, GuardCellsZ int

	SourceComponent, DestComponent, Components int

	PlotFile string
}

type CoarsenWrapper struct {
	Coarsen CoarsenConfig
}

func DefaultCoarsenWrapper() *CoarsenWrapper {
	con := CoarsenConfig{}
	con.RatioX, con.RatioY, con.RatioZ = 1, 1, 1
	con.GuardCellsX, con.GuardCellsY, con.GuardCellsZ = -1, -1, -1
	return &CoarsenWrapper{con}
}

func (con *CoarsenConfig) ValidRatio() bool {
	return con.RatioX > 0 && con.RatioY > 0 && con.RatioZ > 0
}
func (con *CoarsenConfig) ValidGuardCellsVec() bool {
	return con.GuardCellsX >= 0 || con.GuardCellsY >= 0 || con.GuardCellsZ >= 0
}
func (con *CoarsenConfig) ValidPlotFile() bool {
	return con.PlotFile != ""
}

// Ratio returns the coarsening ratio along each axis.
func (con *CoarsenConfig) Ratio() [3]int {
	return [3]int{con.RatioX, con.RatioY, con.RatioZ}
}

// GuardCellsVec returns the number of guard cells along each axis.
func (con *CoarsenConfig) GuardCellsVec() [3]int {
	if con.ValidGuardCellsVec() {
		return [3]int{con.GuardCellsX, con.GuardCellsY, con.GuardCellsZ}
	}
	return [3]int{con.GuardCells, con.GuardCells, con.GuardCells}
}

// Stagger returns the staggering of the output field. Axes which are not
// set take the staggering of the input field, in.
func (con *CoarsenConfig) Stagger(in [3]int) ([3]int, error) {
	out := in
	names := []string{con.StaggerX, con.StaggerY, con.StaggerZ}
	axes := []string{"X", "Y", "Z"}
	for i, name := range names {
		switch strings.ToLower(strings.Trim(name, " ")) {
		case "":
		case "cell":
			out[i] = geom.Cell
		case "node":
			out[i] = geom.Node
		default:
			return in, fmt.Errorf(
				"Stagger%s must be one of [Cell | Node]. '%s' is not "+
					"recognized.", axes[i], name,
			)
		}
	}
	return out, nil
}

// CheckInit returns an error if any of the parameters in con are set to
// invalid values.
func (con *CoarsenConfig) CheckInit() error {
	if !con.ValidInput() {
		return fmt.Errorf("Need to specify an Input file for Coarsen.")
	} else if !con.ValidOutput() {
		return fmt.Errorf("Need to specify an Output file for Coarsen.")
	}

	if !con.ValidRatio() {
		return fmt.Errorf(
			"Coarsening ratio must be positive, but RatioX = %d, "+
				"RatioY = %d, RatioZ = %d.", con.RatioX, con.RatioY, con.RatioZ,
		)
	}

	if con.ValidGuardCellsVec() {
		if con.GuardCellsX < 0 || con.GuardCellsY < 0 || con.GuardCellsZ < 0 {
			return fmt.Errorf(
				"GuardCellsX, GuardCellsY, and GuardCellsZ must all be " +
					"set if any of them are.",
			)
		}
	} else if con.GuardCells < 0 {
		return fmt.Errorf(
			"GuardCells must be non-negative, but is %d.", con.GuardCells,
		)
	}

	if con.SourceComponent < 0 || con.DestComponent < 0 ||
		con.Components < 0 {
		return fmt.Errorf(
			"SourceComponent, DestComponent, and Components must be " +
				"non-negative.",
		)
	}

	if _, err := con.Stagger([3]int{}); err != nil {
		return err
	}

	return nil
}

// ReadCoarsenConfig reads a [Coarsen] config file.
func ReadCoarsenConfig(fname string) (*CoarsenConfig, error) {
	wrap := DefaultCoarsenWrapper()
	return checkCoarsen(wrap, gcfg.ReadFileInto(wrap, fname))
}

// ParseCoarsenConfig reads a [Coarsen] config from a string.
func ParseCoarsenConfig(text string) (*CoarsenConfig, error) {
	wrap := DefaultCoarsenWrapper()
	return checkCoarsen(wrap, gcfg.ReadStringInto(wrap, text))
}

func checkCoarsen(wrap *CoarsenWrapper, err error) (*CoarsenConfig, error) {
	if err != nil {
		return nil, err
	}
	if err := wrap.Coarsen.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Coarsen, nil
}
