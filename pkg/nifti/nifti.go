// Package nifti provides reading and writing of NIfTI-1 volumetric files
// (.nii and .nii.gz), the format used for the bundled example scans.
// Only the single-file variant ("n+1" magic) is supported.
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// NIfTI-1 datatype codes.
const (
	typeUint8   = 2
	typeInt16   = 4
	typeInt32   = 8
	typeFloat32 = 16
	typeFloat64 = 64
	typeUint16  = 512
)

const (
	headerSize = 348
	voxOffset  = 352
)

// Volume holds a loaded volumetric image as a flat array in NIfTI
// column-major order: x varies fastest, then y, z, and volume index.
type Volume struct {
	// Data is the voxel data with scl_slope/scl_inter already applied.
	Data []float64

	// Dims are the grid dimensions (nx, ny, nz, nvol). Dimensions the
	// file does not use are 1.
	Dims [4]int

	// PixDim is the physical voxel spacing per dimension, in the units
	// the file declares (typically mm, and seconds along the 4th axis).
	PixDim [4]float64
}

// At returns the voxel value at grid position (x, y, z) in volume v.
func (v *Volume) At(x, y, z, vol int) float64 {
	nx, ny, nz := v.Dims[0], v.Dims[1], v.Dims[2]
	return v.Data[x+nx*(y+ny*(z+nz*vol))]
}

// NVox returns the number of voxels in a single volume (nx*ny*nz).
func (v *Volume) NVox() int {
	return v.Dims[0] * v.Dims[1] * v.Dims[2]
}

// Len returns the total number of samples across all volumes.
func (v *Volume) Len() int {
	return len(v.Data)
}

// Shape returns the grid dimensions with trailing singleton axes trimmed.
// A scalar volume yields a single axis.
func (v *Volume) Shape() []int {
	n := len(v.Dims)
	for n > 1 && v.Dims[n-1] == 1 {
		n--
	}
	shape := make([]int, n)
	copy(shape, v.Dims[:n])
	return shape
}

// Load reads a NIfTI-1 volume from path. Gzip compression is detected
// from the file content, not the extension.
func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	var magic [2]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	v, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

// Decode parses an uncompressed NIfTI-1 stream.
func Decode(r io.Reader) (*Volume, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	// sizeof_hdr doubles as the endianness probe.
	var order binary.ByteOrder = binary.LittleEndian
	if order.Uint32(hdr[0:4]) != headerSize {
		order = binary.BigEndian
		if order.Uint32(hdr[0:4]) != headerSize {
			return nil, fmt.Errorf("not a NIfTI-1 file: bad sizeof_hdr")
		}
	}
	if hdr[344] != 'n' || hdr[345] != '+' || hdr[346] != '1' {
		return nil, fmt.Errorf("unsupported magic %q: only single-file NIfTI-1 is supported", hdr[344:347])
	}

	ndim := int(int16(order.Uint16(hdr[40:42])))
	if ndim < 1 || ndim > 7 {
		return nil, fmt.Errorf("invalid dimension count %d", ndim)
	}
	var dims [4]int
	var pixdim [4]float64
	for i := range dims {
		dims[i] = 1
		pixdim[i] = 1
	}
	nsamples := 1
	for i := 0; i < ndim; i++ {
		d := int(int16(order.Uint16(hdr[42+2*i : 44+2*i])))
		if d < 1 {
			return nil, fmt.Errorf("invalid dim[%d] = %d", i+1, d)
		}
		nsamples *= d
		p := math.Float32frombits(order.Uint32(hdr[80+4*i : 84+4*i]))
		if i < 3 {
			dims[i] = d
			pixdim[i] = float64(p)
		} else {
			// Collapse the 4th and higher dimensions into one
			// volume axis.
			dims[3] *= d
			if i == 3 {
				pixdim[3] = float64(p)
			}
		}
	}

	datatype := int(int16(order.Uint16(hdr[70:72])))
	offset := int64(math.Float32frombits(order.Uint32(hdr[108:112])))
	if offset < headerSize {
		offset = voxOffset
	}
	if _, err := io.CopyN(io.Discard, r, offset-headerSize); err != nil {
		return nil, fmt.Errorf("seeking voxel data: %w", err)
	}

	data, err := readVoxels(r, order, datatype, nsamples)
	if err != nil {
		return nil, err
	}

	slope := float64(math.Float32frombits(order.Uint32(hdr[112:116])))
	inter := float64(math.Float32frombits(order.Uint32(hdr[116:120])))
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	return &Volume{Data: data, Dims: dims, PixDim: pixdim}, nil
}

func readVoxels(r io.Reader, order binary.ByteOrder, datatype, n int) ([]float64, error) {
	var width int
	switch datatype {
	case typeUint8:
		width = 1
	case typeInt16, typeUint16:
		width = 2
	case typeInt32, typeFloat32:
		width = 4
	case typeFloat64:
		width = 8
	default:
		return nil, fmt.Errorf("unsupported NIfTI datatype code %d", datatype)
	}

	raw := make([]byte, n*width)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading %d voxels: %w", n, err)
	}

	data := make([]float64, n)
	for i := 0; i < n; i++ {
		b := raw[i*width:]
		switch datatype {
		case typeUint8:
			data[i] = float64(b[0])
		case typeInt16:
			data[i] = float64(int16(order.Uint16(b)))
		case typeUint16:
			data[i] = float64(order.Uint16(b))
		case typeInt32:
			data[i] = float64(int32(order.Uint32(b)))
		case typeFloat32:
			data[i] = float64(math.Float32frombits(order.Uint32(b)))
		case typeFloat64:
			data[i] = math.Float64frombits(order.Uint64(b))
		}
	}
	return data, nil
}

// Save writes v to path as a float32 single-file NIfTI-1 volume. A path
// ending in .gz is gzip-compressed.
func Save(path string, v *Volume) error {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return f.Close()
}

// Encode writes v as an uncompressed float32 NIfTI-1 stream.
func Encode(w io.Writer, v *Volume) error {
	total := 1
	ndim := 1
	for i, d := range v.Dims {
		if d < 1 {
			return fmt.Errorf("invalid dimension %d at axis %d", d, i)
		}
		if d > 1 {
			ndim = i + 1
		}
		total *= d
	}
	if total != len(v.Data) {
		return fmt.Errorf("dims %v imply %d samples, have %d", v.Dims, total, len(v.Data))
	}

	var hdr [voxOffset]byte
	order := binary.LittleEndian
	order.PutUint32(hdr[0:4], headerSize)
	order.PutUint16(hdr[40:42], uint16(int16(ndim)))
	for i := 0; i < 4; i++ {
		order.PutUint16(hdr[42+2*i:44+2*i], uint16(int16(v.Dims[i])))
		order.PutUint32(hdr[80+4*i:84+4*i], math.Float32bits(float32(v.PixDim[i])))
	}
	for i := 4; i < 7; i++ {
		order.PutUint16(hdr[42+2*i:44+2*i], 1)
	}
	order.PutUint16(hdr[70:72], typeFloat32)
	order.PutUint16(hdr[72:74], 32) // bitpix
	order.PutUint32(hdr[108:112], math.Float32bits(voxOffset))
	order.PutUint32(hdr[112:116], math.Float32bits(1)) // scl_slope
	copy(hdr[344:348], "n+1\x00")

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	raw := make([]byte, 4*len(v.Data))
	for i, x := range v.Data {
		order.PutUint32(raw[4*i:], math.Float32bits(float32(x)))
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing voxel data: %w", err)
	}
	return nil
}
