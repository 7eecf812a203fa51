package data

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"dmridata/internal/tables"
	"dmridata/pkg/scheme"
)

// Diffusivities the Camino batches were simulated at, in m^2/s. Each batch
// file carries exactly one of these tags.
const (
	DiffusivityLow  = 1.7e-9
	DiffusivityMid  = 2.0e-9
	DiffusivityHigh = 2.3e-9
)

// caminoBatches lists the fixed-diffusivity batches in concatenation order.
var caminoBatches = []struct {
	suffix      string
	diffusivity float64
}{
	{"D1_7", DiffusivityLow},
	{"D2_0", DiffusivityMid},
	{"D2_3", DiffusivityHigh},
}

// CaminoData is a synthetic dataset simulated with the Camino Monte-Carlo
// diffusion simulator (http://camino.cs.ucl.ac.uk/). The per-sample slices
// are aligned: sample i of Fractions, Diffusivities and row i of
// SignalAttenuation describe the same simulated substrate.
type CaminoData struct {
	// Fractions is the ground-truth intra-axonal volume fraction per sample.
	Fractions []float64

	// Diffusivities tags each sample with the batch diffusivity it was
	// simulated at, in m^2/s.
	Diffusivities []float64

	// SignalAttenuation has one row per sample, one column per
	// acquisition-scheme measurement.
	SignalAttenuation *mat.Dense
}

// Len returns the number of simulated samples.
func (d *CaminoData) Len() int {
	return len(d.Fractions)
}

// DispersedCaminoData extends the parallel Camino data with Watson/Bingham
// orientation dispersion; Kappa and Beta are the per-sample concentration
// and anisotropy parameters of the dispersion distribution.
type DispersedCaminoData struct {
	Fractions         []float64
	Diffusivities     []float64
	SignalAttenuation *mat.Dense
	Kappa             []float64
	Beta              []float64
}

// Len returns the number of simulated samples.
func (d *DispersedCaminoData) Len() int {
	return len(d.Fractions)
}

// SyntheticCaminoParallel returns the parallel-fiber Camino dataset: three
// fixed-diffusivity batches concatenated in file order, tagged 1.7e-9,
// 2.0e-9 and 2.3e-9 m^2/s respectively.
func (l *Loader) SyntheticCaminoParallel() (*scheme.AcquisitionScheme, *CaminoData, error) {
	ds := &CaminoData{}
	var signals []*mat.Dense

	for _, batch := range caminoBatches {
		fractions, err := tables.ReadVector(l.path("camino", "fractions_camino_"+batch.suffix+".txt"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading camino fractions %s: %w", batch.suffix, err)
		}
		signal, err := tables.ReadDense(l.path("camino", "data_camino_"+batch.suffix+".txt"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading camino signal %s: %w", batch.suffix, err)
		}
		if rows, _ := signal.Dims(); rows != len(fractions) {
			return nil, nil, fmt.Errorf("camino batch %s: %d signal rows for %d fractions", batch.suffix, rows, len(fractions))
		}

		ds.Fractions = append(ds.Fractions, fractions...)
		ds.Diffusivities = append(ds.Diffusivities, repeat(batch.diffusivity, len(fractions))...)
		signals = append(signals, signal)
	}

	var err error
	ds.SignalAttenuation, err = stackRows(signals)
	if err != nil {
		return nil, nil, fmt.Errorf("concatenating camino signal batches: %w", err)
	}

	sch, err := scheme.WuMinnHCP(l.dir)
	if err != nil {
		return nil, nil, err
	}
	return sch, ds, nil
}

// SyntheticCaminoDispersed returns the dispersed-fiber Camino dataset. The
// per-batch parameter tables carry three columns: fraction, dispersion
// concentration kappa and dispersion anisotropy beta.
func (l *Loader) SyntheticCaminoDispersed() (*scheme.AcquisitionScheme, *DispersedCaminoData, error) {
	ds := &DispersedCaminoData{}
	var signals []*mat.Dense

	for _, batch := range caminoBatches {
		signal, err := tables.ReadDense(l.path("camino", "data_camino_dispersed_"+batch.suffix+".txt"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading dispersed camino signal %s: %w", batch.suffix, err)
		}
		params, err := tables.ReadDense(l.path("camino", "parameters_camino_dispersed_"+batch.suffix+".txt"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading dispersed camino parameters %s: %w", batch.suffix, err)
		}

		n, cols := params.Dims()
		if cols < 3 {
			return nil, nil, fmt.Errorf("dispersed camino parameters %s: %d columns, want 3", batch.suffix, cols)
		}
		if rows, _ := signal.Dims(); rows != n {
			return nil, nil, fmt.Errorf("dispersed camino batch %s: %d signal rows for %d parameter rows", batch.suffix, rows, n)
		}

		ds.Fractions = append(ds.Fractions, column(params, 0)...)
		ds.Kappa = append(ds.Kappa, column(params, 1)...)
		ds.Beta = append(ds.Beta, column(params, 2)...)
		ds.Diffusivities = append(ds.Diffusivities, repeat(batch.diffusivity, n)...)
		signals = append(signals, signal)
	}

	var err error
	ds.SignalAttenuation, err = stackRows(signals)
	if err != nil {
		return nil, nil, fmt.Errorf("concatenating dispersed camino signal batches: %w", err)
	}

	sch, err := scheme.WuMinnHCP(l.dir)
	if err != nil {
		return nil, nil, err
	}
	return sch, ds, nil
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func column(m *mat.Dense, j int) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	mat.Col(out, j, m)
	return out
}

// stackRows concatenates matrices along the row axis. All inputs must have
// the same column count.
func stackRows(ms []*mat.Dense) (*mat.Dense, error) {
	total := 0
	_, cols := ms[0].Dims()
	for _, m := range ms {
		r, c := m.Dims()
		if c != cols {
			return nil, fmt.Errorf("column count mismatch: %d vs %d", c, cols)
		}
		total += r
	}
	out := mat.NewDense(total, cols, nil)
	row := 0
	for _, m := range ms {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			out.SetRow(row, m.RawRowView(i))
			row++
		}
	}
	return out, nil
}
