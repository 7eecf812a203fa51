package data

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmridata/pkg/nifti"
)

// batchSizes are the per-batch sample counts of the test fixtures, in
// concatenation order (D1_7, D2_0, D2_3).
var batchSizes = []int{4, 3, 2}

const nMeasurements = 5

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// fixtureFraction gives every sample a distinct ground-truth fraction
// inside the dataset's typical 0.2-0.8 range.
func fixtureFraction(batch, i int) float64 {
	return 0.25 + 0.15*float64(batch) + 0.02*float64(i)
}

func signalRow(n int) string {
	fields := make([]string, n)
	for i := range fields {
		fields[i] = fmt.Sprintf("%.4f", 1.0/float64(i+1))
	}
	return strings.Join(fields, " ")
}

// newCaminoDir writes the synthetic Camino fixtures plus the HCP scheme
// tables and returns the data directory.
func newCaminoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	suffixes := []string{"D1_7", "D2_0", "D2_3"}
	for b, suffix := range suffixes {
		var fractions, signal, dispSignal, params strings.Builder
		for i := 0; i < batchSizes[b]; i++ {
			f := fixtureFraction(b, i)
			fmt.Fprintf(&fractions, "%.4f\n", f)
			fmt.Fprintln(&signal, signalRow(nMeasurements))
			fmt.Fprintln(&dispSignal, signalRow(nMeasurements))
			// fraction kappa beta
			fmt.Fprintf(&params, "%.4f %.2f %.2f\n", f, float64(10+i), 0.1*float64(i))
		}
		writeFixture(t, filepath.Join(dir, "camino", "fractions_camino_"+suffix+".txt"), fractions.String())
		writeFixture(t, filepath.Join(dir, "camino", "data_camino_"+suffix+".txt"), signal.String())
		writeFixture(t, filepath.Join(dir, "camino", "data_camino_dispersed_"+suffix+".txt"), dispSignal.String())
		writeFixture(t, filepath.Join(dir, "camino", "parameters_camino_dispersed_"+suffix+".txt"), params.String())
	}

	writeFixture(t, filepath.Join(dir, "hcp", "bvals"), "0 1000 2000 3000 1000\n")
	writeFixture(t, filepath.Join(dir, "hcp", "bvecs"),
		"0 1 0 0 1\n0 0 1 0 0\n0 0 0 1 0\n")
	return dir
}

func totalSamples() int {
	sum := 0
	for _, n := range batchSizes {
		sum += n
	}
	return sum
}

func newQuietLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	return NewLoader(dir, WithLogger(zerolog.Nop()))
}

func TestSyntheticCaminoParallel(t *testing.T) {
	loader := newQuietLoader(t, newCaminoDir(t))

	sch, ds, err := loader.SyntheticCaminoParallel()
	require.NoError(t, err)
	require.NotNil(t, sch)

	n := totalSamples()
	assert.Len(t, ds.Fractions, n)
	assert.Len(t, ds.Diffusivities, n)
	rows, cols := ds.SignalAttenuation.Dims()
	assert.Equal(t, n, rows)
	assert.Equal(t, nMeasurements, cols)

	// Diffusivity tags follow the batches in file order.
	want := append(append(
		repeat(DiffusivityLow, batchSizes[0]),
		repeat(DiffusivityMid, batchSizes[1])...),
		repeat(DiffusivityHigh, batchSizes[2])...)
	assert.Equal(t, want, ds.Diffusivities)

	// Fractions stay aligned with their batch of origin.
	assert.InDelta(t, fixtureFraction(0, 0), ds.Fractions[0], 1e-9)
	assert.InDelta(t, fixtureFraction(1, 0), ds.Fractions[batchSizes[0]], 1e-9)
	assert.InDelta(t, fixtureFraction(2, 0), ds.Fractions[batchSizes[0]+batchSizes[1]], 1e-9)
}

func TestSyntheticCaminoDispersed(t *testing.T) {
	loader := newQuietLoader(t, newCaminoDir(t))

	_, ds, err := loader.SyntheticCaminoDispersed()
	require.NoError(t, err)

	n := totalSamples()
	assert.Len(t, ds.Fractions, n)
	assert.Len(t, ds.Diffusivities, n)
	assert.Len(t, ds.Kappa, n)
	assert.Len(t, ds.Beta, n)

	// Kappa and beta come from parameter-table columns 1 and 2.
	assert.Equal(t, 10.0, ds.Kappa[0])
	assert.Equal(t, 11.0, ds.Kappa[1])
	assert.Equal(t, 0.0, ds.Beta[0])
	assert.InDelta(t, 0.1, ds.Beta[1], 1e-12)

	for _, d := range ds.Diffusivities {
		assert.Contains(t, []float64{DiffusivityLow, DiffusivityMid, DiffusivityHigh}, d)
	}
}

func TestSyntheticCamino_MissingBatch(t *testing.T) {
	dir := newCaminoDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "camino", "data_camino_D2_0.txt")))

	_, _, err := newQuietLoader(t, dir).SyntheticCaminoParallel()
	assert.Error(t, err)
}

func TestSyntheticCamino_RowCountMismatch(t *testing.T) {
	dir := newCaminoDir(t)
	writeFixture(t, filepath.Join(dir, "camino", "fractions_camino_D1_7.txt"), "0.5\n")

	_, _, err := newQuietLoader(t, dir).SyntheticCaminoParallel()
	assert.ErrorContains(t, err, "signal rows")
}

func TestWuMinnHCPCoronalSlice_NotDownloaded(t *testing.T) {
	loader := newQuietLoader(t, t.TempDir())

	_, _, err := loader.WuMinnHCPCoronalSlice()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDownloaded))
	assert.Contains(t, err.Error(), "HCP tutorial")
}

func TestWuMinnHCPCoronalSlice(t *testing.T) {
	dir := newCaminoDir(t)
	slice := &nifti.Volume{
		Dims:   [4]int{4, 4, 1, 5},
		PixDim: [4]float64{1.25, 1.25, 1.25, 1},
		Data:   make([]float64, 4*4*1*5),
	}
	for i := range slice.Data {
		slice.Data[i] = float64(i)
	}
	path := filepath.Join(dir, "hcp", "hcp_example_slice", "coronal_slice.nii.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, nifti.Save(path, slice))

	var notices bytes.Buffer
	loader := NewLoader(dir, WithLogger(zerolog.New(&notices)))

	sch, vol, err := loader.WuMinnHCPCoronalSlice()
	require.NoError(t, err)
	assert.Equal(t, [4]int{4, 4, 1, 5}, vol.Dims)
	assert.Equal(t, 5, sch.Len())
	assert.Contains(t, notices.String(), "Human Connectome Project")
}

func TestDuvalCatSpinalCord2D(t *testing.T) {
	dir := newCaminoDir(t)
	scDir := filepath.Join(dir, "tanguy_cat_spinal_cord")
	require.NoError(t, os.MkdirAll(scDir, 0755))

	writeFixture(t, filepath.Join(scDir, "acquisition_scheme.txt"),
		"0 0 0 0.0 0.012 0.003 0.04\n"+
			"1 0 0 0.3 0.012 0.003 0.04\n")

	// Histology maps: 3x2 grid, one volume each. The restricted fraction
	// map (h4) alternates positive and non-positive voxels.
	histo := &nifti.Volume{
		Dims:   [4]int{3, 2, 1, 1},
		PixDim: [4]float64{1, 1, 1, 1},
		Data:   []float64{0.5, 0, 0.25, -0.1, 0.75, 0},
	}
	for _, name := range histologyFiles {
		require.NoError(t, nifti.Save(filepath.Join(scDir, name), histo))
	}

	signal := &nifti.Volume{
		Dims:   [4]int{3, 2, 1, 2},
		PixDim: [4]float64{1, 1, 1, 1},
		Data:   make([]float64, 12),
	}
	require.NoError(t, nifti.Save(filepath.Join(scDir, "tanguy_spinal_cord_2D.nii.gz"), signal))

	sch, ds, err := newQuietLoader(t, dir).DuvalCatSpinalCord2D()
	require.NoError(t, err)
	assert.Equal(t, 2, sch.Len())
	require.NotNil(t, ds.Histology.RestrictedFraction)

	// Mask shape is the h4 map's shape plus a trailing singleton axis,
	// true exactly where the map is strictly positive.
	assert.Equal(t, []int{3, 2, 1}, ds.Mask.Dims)
	assert.Equal(t, []bool{true, false, true, false, true, false}, ds.Mask.Data)
}

func TestDuvalCatSpinalCord2D_MissingMap(t *testing.T) {
	dir := newCaminoDir(t)

	_, _, err := newQuietLoader(t, dir).DuvalCatSpinalCord2D()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "histology")
}

func TestDefaultDir_Env(t *testing.T) {
	t.Setenv(envDataDir, "/srv/dmri")
	assert.Equal(t, "/srv/dmri", DefaultDir())
}
