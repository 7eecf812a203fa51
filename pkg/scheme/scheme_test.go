package scheme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWuMinnHCP(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hcp", "bvals"), "0 1000 2000 3000\n")
	writeFile(t, filepath.Join(dir, "hcp", "bvecs"),
		"0 1 0 3\n"+
			"0 0 1 4\n"+
			"0 0 0 0\n")

	s, err := WuMinnHCP(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []float64{0, 1000e6, 2000e6, 3000e6}, s.Bvalues)

	rows, cols := s.Directions.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)

	// Directions are normalized to unit length; the b0 direction stays zero.
	assert.Equal(t, []float64{0, 0, 0}, s.Directions.RawRowView(0))
	assert.InDelta(t, 0.6, s.Directions.At(3, 0), 1e-12)
	assert.InDelta(t, 0.8, s.Directions.At(3, 1), 1e-12)

	for i := 0; i < s.Len(); i++ {
		assert.Equal(t, 43.1e-3, s.Delta[i])
		assert.Equal(t, 10.6e-3, s.SmallDelta[i])
	}
	assert.Equal(t, []bool{true, false, false, false}, s.B0Mask())
	assert.Nil(t, s.TE)
}

func TestWuMinnHCP_SampleCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hcp", "bvals"), "0 1000 2000\n")
	writeFile(t, filepath.Join(dir, "hcp", "bvecs"), "0 1\n0 0\n0 0\n")

	_, err := WuMinnHCP(dir)
	assert.Error(t, err)
}

func TestDuvalCatSpinalCord2D(t *testing.T) {
	dir := t.TempDir()
	// direction(3) |G| Delta delta TE
	writeFile(t, filepath.Join(dir, "tanguy_cat_spinal_cord", "acquisition_scheme.txt"),
		"# dx dy dz G Delta delta TE\n"+
			"0 0 0  0.0   0.012 0.003 0.04\n"+
			"1 0 0  0.3   0.012 0.003 0.04\n"+
			"0 1 0  0.3   0.020 0.005 0.06\n")

	s, err := DuvalCatSpinalCord2D(dir)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, 0.0, s.Bvalues[0])

	q := 2.675987e8 * 0.003 * 0.3
	assert.InDelta(t, q*q*(0.012-0.001), s.Bvalues[1], s.Bvalues[1]*1e-12)

	assert.Equal(t, []float64{0.012, 0.012, 0.020}, s.Delta)
	assert.Equal(t, []float64{0.003, 0.003, 0.005}, s.SmallDelta)
	assert.Equal(t, []float64{0.04, 0.04, 0.06}, s.TE)
	assert.Equal(t, []bool{true, false, false}, s.B0Mask())
}

func TestDuvalCatSpinalCord2D_ShortRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tanguy_cat_spinal_cord", "acquisition_scheme.txt"),
		"1 0 0 0.3\n")

	_, err := DuvalCatSpinalCord2D(dir)
	assert.ErrorContains(t, err, "columns")
}

func TestB0Mask_Threshold(t *testing.T) {
	s := &AcquisitionScheme{Bvalues: []float64{0, 5e6, 10e6, 1000e6}}
	assert.Equal(t, []bool{true, true, false, false}, s.B0Mask())
}
