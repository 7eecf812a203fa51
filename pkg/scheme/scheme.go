// Package scheme constructs acquisition-scheme descriptors for the bundled
// example datasets. A scheme records, per measured sample, the diffusion
// sensitization (b-value), gradient direction and pulse timings under which
// the signal was acquired or simulated. Downstream code treats schemes as
// opaque values.
package scheme

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"dmridata/internal/tables"
)

// gyromagnetic ratio of the proton, rad/s/T.
const gyroRatio = 2.675987e8

// b-values below this (s/m^2) count as b0 measurements.
const b0Threshold = 10e6

// AcquisitionScheme describes a diffusion-weighted imaging protocol.
// All quantities are in SI units: b-values in s/m^2, timings in seconds.
type AcquisitionScheme struct {
	Name string

	// Bvalues holds one b-value per measured sample.
	Bvalues []float64

	// Directions is the N x 3 matrix of unit gradient directions.
	Directions *mat.Dense

	// Delta is the pulse separation per sample.
	Delta []float64

	// SmallDelta is the pulse duration per sample.
	SmallDelta []float64

	// TE is the echo time per sample, or nil when the source data does
	// not record it.
	TE []float64
}

// Len returns the number of measured samples.
func (s *AcquisitionScheme) Len() int {
	return len(s.Bvalues)
}

// B0Mask reports which samples are unweighted (b-value below threshold).
func (s *AcquisitionScheme) B0Mask() []bool {
	mask := make([]bool, len(s.Bvalues))
	for i, b := range s.Bvalues {
		mask[i] = b < b0Threshold
	}
	return mask
}

// WuMinnHCP builds the acquisition scheme of the WU-Minn Human Connectome
// Project protocol from the bundled bvals/bvecs tables under dir. The HCP
// protocol uses a single pulse separation and duration for all samples.
func WuMinnHCP(dir string) (*AcquisitionScheme, error) {
	bvals, err := tables.ReadVector(filepath.Join(dir, "hcp", "bvals"))
	if err != nil {
		return nil, fmt.Errorf("loading HCP bvals: %w", err)
	}
	bvecs, err := tables.Read(filepath.Join(dir, "hcp", "bvecs"))
	if err != nil {
		return nil, fmt.Errorf("loading HCP bvecs: %w", err)
	}

	// bvecs files store one row per coordinate, one column per sample.
	dirs, err := directionsFromRows(bvecs, len(bvals))
	if err != nil {
		return nil, fmt.Errorf("loading HCP bvecs: %w", err)
	}

	n := len(bvals)
	scheme := &AcquisitionScheme{
		Name:       "wu_minn_hcp",
		Bvalues:    make([]float64, n),
		Directions: dirs,
		Delta:      constants(43.1e-3, n),
		SmallDelta: constants(10.6e-3, n),
	}
	for i, b := range bvals {
		// s/mm^2 -> s/m^2
		scheme.Bvalues[i] = b * 1e6
	}
	return scheme, nil
}

// DuvalCatSpinalCord2D builds the multi-diffusion-time AxCaliber scheme of
// the Duval et al. cat spinal cord dataset. The bundled table has one row
// per sample: gradient direction (3 columns), gradient strength |G| (T/m),
// pulse separation, pulse duration and echo time (seconds).
func DuvalCatSpinalCord2D(dir string) (*AcquisitionScheme, error) {
	path := filepath.Join(dir, "tanguy_cat_spinal_cord", "acquisition_scheme.txt")
	rows, err := tables.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loading spinal cord scheme: %w", err)
	}

	n := len(rows)
	scheme := &AcquisitionScheme{
		Name:       "duval_cat_spinal_cord_2d",
		Bvalues:    make([]float64, n),
		Directions: mat.NewDense(n, 3, nil),
		Delta:      make([]float64, n),
		SmallDelta: make([]float64, n),
		TE:         make([]float64, n),
	}
	for i, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("loading spinal cord scheme: row %d has %d columns, want 7", i, len(row))
		}
		scheme.Directions.SetRow(i, row[0:3])
		g, delta, smallDelta := row[3], row[4], row[5]
		scheme.Delta[i] = delta
		scheme.SmallDelta[i] = smallDelta
		scheme.TE[i] = row[6]
		// Stejskal-Tanner: b = (gamma * delta * |G|)^2 * (Delta - delta/3)
		q := gyroRatio * smallDelta * g
		scheme.Bvalues[i] = q * q * (delta - smallDelta/3)
	}
	return scheme, nil
}

func constants(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// directionsFromRows converts the 3-row bvecs layout into an N x 3 matrix,
// normalizing nonzero vectors to unit length. Zero vectors (b0 samples)
// pass through unchanged.
func directionsFromRows(rows [][]float64, n int) (*mat.Dense, error) {
	if len(rows) != 3 {
		return nil, fmt.Errorf("want 3 coordinate rows, got %d", len(rows))
	}
	for c, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("coordinate row %d has %d samples, want %d", c, len(row), n)
		}
	}
	dirs := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		x, y, z := rows[0][i], rows[1][i], rows[2][i]
		norm := math.Sqrt(x*x + y*y + z*z)
		if norm > 0 {
			x, y, z = x/norm, y/norm, z/norm
		}
		dirs.SetRow(i, []float64{x, y, z})
	}
	return dirs, nil
}
