package io

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/picdiag"
)

// Columns of particle tables.
const (
	IdCol = iota
	XCol
	YCol
	ZCol
	UxCol
	UyCol
	UzCol
	WCol
)

// ReadParticles reads a text table of particles with the columns
// id x y z ux uy uz. If weighted is true, an eighth column holding the
// particle weight is read too. Otherwise every weight is 1.
func ReadParticles(fname string, weighted bool) ([]picdiag.Particle, error) {
	colIdxs := []int{IdCol, XCol, YCol, ZCol, UxCol, UyCol, UzCol}
	if weighted {
		colIdxs = append(colIdxs, WCol)
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, err
	}
	return ParticlesFromColumns(cols)
}

// ParticlesFromColumns converts table columns in the order used by
// ReadParticles into particles.
func ParticlesFromColumns(cols [][]float64) ([]picdiag.Particle, error) {
	if len(cols) != 7 && len(cols) != 8 {
		return nil, fmt.Errorf(
			"Particle tables need 7 or 8 columns, but %d were given.",
			len(cols),
		)
	}
	n := len(cols[0])
	for i := range cols {
		if len(cols[i]) != n {
			return nil, fmt.Errorf(
				"Column %d has %d rows, but column 0 has %d.",
				i, len(cols[i]), n,
			)
		}
	}

	ps := make([]picdiag.Particle, n)
	for i := range ps {
		p := &ps[i]
		p.Id = int64(cols[IdCol][i])
		p.Xs = [3]float64{cols[XCol][i], cols[YCol][i], cols[ZCol][i]}
		p.RData[picdiag.Ux] = cols[UxCol][i]
		p.RData[picdiag.Uy] = cols[UyCol][i]
		p.RData[picdiag.Uz] = cols[UzCol][i]
		if len(cols) == 8 {
			p.RData[picdiag.W] = cols[WCol][i]
		} else {
			p.RData[picdiag.W] = 1
		}
	}
	return ps, nil
}

// WriteParticles writes ps to wr as a table that ReadParticles can read
// with weighted set to true.
func WriteParticles(wr io.Writer, ps []picdiag.Particle) error {
	bw := bufio.NewWriter(wr)
	if _, err := fmt.Fprintln(bw, "# id x y z ux uy uz w"); err != nil {
		return err
	}
	for i := range ps {
		p := &ps[i]
		_, err := fmt.Fprintf(bw, "%d %g %g %g %g %g %g %g\n",
			p.Id, p.Xs[0], p.Xs[1], p.Xs[2], p.RData[picdiag.Ux],
			p.RData[picdiag.Uy], p.RData[picdiag.Uz], p.RData[picdiag.W],
		)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteParticlesFile writes ps to the file fname.
func WriteParticlesFile(fname string, ps []picdiag.Particle) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err = WriteParticles(f, ps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
