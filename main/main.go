package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/coarsen"
	"github.com/phil-mansfield/picdiag/field"
	"github.com/phil-mansfield/picdiag/filter"
	"github.com/phil-mansfield/picdiag/geom"
	"github.com/phil-mansfield/picdiag/io"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		filterCfg, coarsenCfg string
		exampleConfig         string
	)
	vars := map[string]*string{
		"Filter":        &filterCfg,
		"Coarsen":       &coarsenCfg,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&filterCfg, "Filter", "",
		"Configuration file for [Filter] mode.",
	)
	flag.StringVar(
		&coarsenCfg, "Coarsen", "",
		"Configuration file for [Coarsen] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Filter' "+
			"and 'Coarsen'.",
	)
	flag.IntVar(
		&picdiag.NumCores, "Threads", runtime.NumCPU(),
		"Number of threads used by Filter and Coarsen modes.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	if picdiag.NumCores < 1 {
		log.Fatalf("'Threads' must be positive, but is %d.", picdiag.NumCores)
	}
	runtime.GOMAXPROCS(picdiag.NumCores)

	switch modeName {
	case "Filter":
		con, err := io.ReadFilterConfig(filterCfg)
		if err != nil {
			log.Fatal(err.Error())
		}
		filterMain(con)

	case "Coarsen":
		con, err := io.ReadCoarsenConfig(coarsenCfg)
		if err != nil {
			log.Fatal(err.Error())
		}
		coarsenMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Filter":
			fmt.Println(io.ExampleFilterFile)
		case "Coarsen":
			fmt.Println(io.ExampleCoarsenFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Filter' and 'Coarsen'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but picdiag "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupIO(con *io.SharedConfig, mode string) *FileGroup {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	log.Printf("Running %s main.", mode)

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func filterMain(con *io.FilterConfig) {
	fg := setupIO(&con.SharedConfig, "Filter")
	defer fg.Close()

	fs, err := con.Filters()
	if err != nil {
		log.Fatal(err.Error())
	}
	names := []string{"Random", "Uniform", "Geometry", "Parser"}
	active := []bool{
		con.ValidRandomFraction(), con.ValidUniformStride(),
		con.ValidBox(), con.ValidParserExpression(),
	}
	for i := range names {
		if active[i] {
			log.Printf("%s filter is active.", names[i])
		}
	}

	ps, err := io.ReadParticles(con.Input, con.Weighted)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Read %d particles from %s.", len(ps), con.Input)

	mask := filter.Mask(ps, fs, uint64(con.Seed))
	kept := filter.Compact(ps, mask)
	log.Printf("Kept %d/%d particles.", len(kept), len(ps))

	if err = io.WriteParticlesFile(con.Output, kept); err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Wrote selected particles to %s.", con.Output)
}

func coarsenMain(con *io.CoarsenConfig) {
	fg := setupIO(&con.SharedConfig, "Coarsen")
	defer fg.Close()

	src, err := io.ReadFieldFile(con.Input)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Read field with valid bounds %v, staggering %v, and %d "+
		"components.", src.Valid, src.Stagger, src.NComp)

	stag, err := con.Stagger(src.Stagger)
	if err != nil {
		log.Fatal(err.Error())
	}
	ratio := con.Ratio()
	scomp, dcomp := con.SourceComponent, con.DestComponent
	ncomp := con.Components
	if ncomp == 0 {
		ncomp = src.NComp - scomp
	}
	if ncomp <= 0 {
		log.Fatalf("SourceComponent is %d, but the input field only has "+
			"%d components.", scomp, src.NComp)
	}

	ngrow := con.GuardCellsVec()
	conv := src.Valid.Convert(src.Stagger, stag)
	crse := conv.Coarsen(ratio, stag)
	dst := field.New(crse, ngrow, dcomp+ncomp, stag)

	if con.ValidGuardCellsVec() {
		err = coarsen.CoarsenVec(dst, src, dcomp, scomp, ncomp, ngrow, ratio)
	} else {
		err = coarsen.Coarsen(
			dst, src, dcomp, scomp, ncomp, con.GuardCells, ratio,
		)
	}
	if err != nil {
		log.Fatal(err.Error())
	}

	for c := 0; c < ncomp; c++ {
		fine, coarse := src.Stats(scomp+c), dst.Stats(dcomp+c)
		log.Printf("Component %d: fine mean %.4g (std %.4g, range [%.4g, "+
			"%.4g]), coarse mean %.4g (std %.4g, range [%.4g, %.4g]).",
			scomp+c, fine.Mean, fine.Std, fine.Min, fine.Max,
			coarse.Mean, coarse.Std, coarse.Min, coarse.Max,
		)
	}

	if err = io.WriteFieldFile(con.Output, dst); err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Wrote coarsened field with valid bounds %v to %s.",
		dst.Valid, con.Output)

	if con.ValidPlotFile() {
		plotLineout(src, dst, scomp, dcomp, ratio, con.PlotFile)
		log.Printf("Wrote lineout to %s.", con.PlotFile)
	}
}

// lineout returns the positions, in units of fine cells, and values of
// component c of a along x through (j, k).
func lineout(
	a *field.Array, c, j, k, ratio int,
) (xs, vals []float64) {
	hi := a.Valid.Hi()
	off := 0.5 * float64(1-a.Stagger[0])
	for i := a.Valid.Origin[0]; i <= hi[0]; i++ {
		xs = append(xs, (float64(i)+off)*float64(ratio))
		vals = append(vals, a.Get(i, j, k, c))
	}
	return xs, vals
}

func plotLineout(
	src, dst *field.Array, scomp, dcomp int, ratio [3]int, fname string,
) {
	jc, kc := midpoint(dst.Valid, 1), midpoint(dst.Valid, 2)
	jf := clamp(jc*ratio[1], src.Valid, 1)
	kf := clamp(kc*ratio[2], src.Valid, 2)

	fxs, fvals := lineout(src, scomp, jf, kf, 1)
	cxs, cvals := lineout(dst, dcomp, jc, kc, ratio[0])

	plt.Figure()
	plt.Plot(fxs, fvals, "k", plt.LW(2))
	plt.Plot(cxs, cvals, plt.LW(3), plt.C("r"))
	plt.Title(fmt.Sprintf(
		"Component %d, coarsening ratio (%d, %d, %d)",
		scomp, ratio[0], ratio[1], ratio[2],
	))
	plt.XLabel("$x$ [fine cells]", plt.FontSize(16))
	plt.YLabel("Value", plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	plt.Execute()
}

func midpoint(b geom.CellBounds, axis int) int {
	return b.Origin[axis] + b.Width[axis]/2
}

func clamp(i int, b geom.CellBounds, axis int) int {
	hi := b.Hi()
	if i < b.Origin[axis] {
		return b.Origin[axis]
	} else if i > hi[axis] {
		return hi[axis]
	}
	return i
}
