// Package visualization extracts 2D grayscale slices from loaded example
// volumes for quick visual inspection, for example of the HCP coronal
// slice or the spinal cord signal.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"dmridata/pkg/nifti"
)

// Viewer renders axis-aligned slices of one volume of a loaded dataset.
type Viewer struct {
	vol *nifti.Volume

	// index selects which volume of a 4D dataset is rendered.
	index int

	// lo, hi are the intensity bounds mapped to black and white.
	lo, hi float64
}

// NewViewer creates a viewer over volume index of vol. Intensity bounds
// for the grayscale mapping are taken from that volume's value range.
func NewViewer(vol *nifti.Volume, index int) (*Viewer, error) {
	if index < 0 || index >= vol.Dims[3] {
		return nil, fmt.Errorf("volume index %d out of range [0, %d)", index, vol.Dims[3])
	}

	v := &Viewer{vol: vol, index: index, lo: math.Inf(1), hi: math.Inf(-1)}
	base := index * vol.NVox()
	for _, x := range vol.Data[base : base+vol.NVox()] {
		v.lo = math.Min(v.lo, x)
		v.hi = math.Max(v.hi, x)
	}
	if v.hi <= v.lo {
		v.hi = v.lo + 1
	}
	return v, nil
}

func (v *Viewer) gray(x float64) color.Gray16 {
	scaled := (x - v.lo) / (v.hi - v.lo) * 65535
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, scaled)))}
}

// ExtractSlice renders the 2D slice at the given position along the axis
// ("x", "y" or "z").
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	nx, ny, nz := v.vol.Dims[0], v.vol.Dims[1], v.vol.Dims[2]

	var img *image.Gray16
	switch axis {
	case "x", "X":
		if position >= nx {
			return nil, fmt.Errorf("position %d exceeds x dimension %d", position, nx)
		}
		img = image.NewGray16(image.Rect(0, 0, nz, ny))
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				img.SetGray16(z, y, v.gray(v.vol.At(position, y, z, v.index)))
			}
		}

	case "y", "Y":
		if position >= ny {
			return nil, fmt.Errorf("position %d exceeds y dimension %d", position, ny)
		}
		img = image.NewGray16(image.Rect(0, 0, nx, nz))
		for z := 0; z < nz; z++ {
			for x := 0; x < nx; x++ {
				img.SetGray16(x, z, v.gray(v.vol.At(x, position, z, v.index)))
			}
		}

	case "z", "Z":
		if position >= nz {
			return nil, fmt.Errorf("position %d exceeds z dimension %d", position, nz)
		}
		img = image.NewGray16(image.Rect(0, 0, nx, ny))
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				img.SetGray16(x, y, v.gray(v.vol.At(x, y, position, v.index)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the given axis
// into outputDir as slice_<axis>_<nnn>.jpg.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Dims[0]
	case "y", "Y":
		maxPos = v.vol.Dims[1]
	case "z", "Z":
		maxPos = v.vol.Dims[2]
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
