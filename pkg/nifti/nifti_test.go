package nifti

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVolume() *Volume {
	v := &Volume{
		Dims:   [4]int{3, 4, 2, 2},
		PixDim: [4]float64{1.25, 1.25, 2.0, 1.0},
	}
	v.Data = make([]float64, 3*4*2*2)
	for i := range v.Data {
		v.Data[i] = float64(i) / 2
	}
	return v
}

func TestEncodeDecode(t *testing.T) {
	want := testVolume()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, want.Dims, got.Dims)
	assert.InDeltaSlice(t, want.PixDim[:], got.PixDim[:], 1e-6)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-6)
}

func TestSaveLoad_Gzip(t *testing.T) {
	want := testVolume()
	path := filepath.Join(t.TempDir(), "vol.nii.gz")

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Dims, got.Dims)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-6)
}

func TestSaveLoad_Plain(t *testing.T) {
	want := testVolume()
	path := filepath.Join(t.TempDir(), "vol.nii")

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Dims, got.Dims)
}

func TestVolume_At(t *testing.T) {
	v := testVolume()

	// Column-major: x fastest.
	assert.Equal(t, v.Data[0], v.At(0, 0, 0, 0))
	assert.Equal(t, v.Data[1], v.At(1, 0, 0, 0))
	assert.Equal(t, v.Data[3], v.At(0, 1, 0, 0))
	assert.Equal(t, v.Data[12], v.At(0, 0, 1, 0))
	assert.Equal(t, v.Data[24], v.At(0, 0, 0, 1))
}

func TestVolume_Shape(t *testing.T) {
	assert.Equal(t, []int{5, 6}, (&Volume{Dims: [4]int{5, 6, 1, 1}}).Shape())
	assert.Equal(t, []int{5, 6, 7, 2}, (&Volume{Dims: [4]int{5, 6, 7, 2}}).Shape())
	assert.Equal(t, []int{1}, (&Volume{Dims: [4]int{1, 1, 1, 1}}).Shape())
}

func TestDecode_ScaleApplied(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testVolume()))
	raw := buf.Bytes()

	// Patch scl_slope = 2, scl_inter = 1 into the header.
	binary.LittleEndian.PutUint32(raw[112:116], math.Float32bits(2))
	binary.LittleEndian.PutUint32(raw[116:120], math.Float32bits(1))

	got, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	for i, x := range testVolume().Data {
		assert.InDelta(t, x*2+1, got.Data[i], 1e-6)
	}
}

func TestDecode_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testVolume()))
	valid := buf.Bytes()

	t.Run("short header", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(valid[:100]))
		assert.Error(t, err)
	})

	t.Run("bad sizeof_hdr", func(t *testing.T) {
		raw := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(raw[0:4], 999)
		_, err := Decode(bytes.NewReader(raw))
		assert.ErrorContains(t, err, "sizeof_hdr")
	})

	t.Run("pair magic", func(t *testing.T) {
		raw := bytes.Clone(valid)
		copy(raw[344:348], "ni1\x00")
		_, err := Decode(bytes.NewReader(raw))
		assert.ErrorContains(t, err, "magic")
	})

	t.Run("unsupported datatype", func(t *testing.T) {
		raw := bytes.Clone(valid)
		binary.LittleEndian.PutUint16(raw[70:72], 128) // RGB24
		_, err := Decode(bytes.NewReader(raw))
		assert.ErrorContains(t, err, "datatype")
	})

	t.Run("truncated voxels", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(valid[:len(valid)-8]))
		assert.Error(t, err)
	})
}

func TestEncode_DimMismatch(t *testing.T) {
	v := testVolume()
	v.Data = v.Data[:10]

	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, v))
}
