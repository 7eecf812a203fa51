package data

import (
	"fmt"
	"path/filepath"

	"dmridata/pkg/nifti"
	"dmridata/pkg/scheme"
)

const duvalAttribution = "This data was used by Duval et al. 'Validation of quantitative " +
	"MRI metrics using full slice histology with automatic axon segmentation', " +
	"ISMRM 2016. Reference at Cohen-Adad et al. White Matter Microscopy " +
	"Database. http://doi.org/10.17605/OSF.IO/YP4QG"

// Histology groups the seven volumetric maps co-registered with the Duval
// spinal cord scan, one file per map.
type Histology struct {
	AxonEquivDiameter                *nifti.Volume
	AxonEquivDiameterStd             *nifti.Volume
	AxonEquivDiameterVolumeCorrected *nifti.Volume
	RestrictedFraction               *nifti.Volume
	MyelinVolumeFraction             *nifti.Volume
	GRatio                           *nifti.Volume
	NumberAxons                      *nifti.Volume
}

// Mask is a boolean voxel mask. Dims mirrors the source map's shape plus
// a trailing singleton axis, Data is flat in the same order as the map.
type Mask struct {
	Dims []int
	Data []bool
}

// SpinalCord2D is the Duval cat spinal cord dataset: the diffusion signal,
// the histology maps and the validity mask derived from the restricted
// fraction map (true where the fraction is strictly positive).
type SpinalCord2D struct {
	Signal    *nifti.Volume
	Histology Histology
	Mask      Mask
}

var histologyFiles = []string{
	"1_axonEquivDiameter.nii",
	"2_axonEquivDiameter_std.nii",
	"3_axonEquivDiameter_axonvolumeCorrected.nii",
	"4_fr.nii",
	"5_MyelinVolumeFraction.nii",
	"6_gRatio.nii",
	"7_Number_axons.nii",
}

// DuvalCatSpinalCord2D returns the 2D multi-diffusion-time AxCaliber
// dataset of cat spinal cord with its histology maps and acquisition
// scheme.
func (l *Loader) DuvalCatSpinalCord2D() (*scheme.AcquisitionScheme, *SpinalCord2D, error) {
	dir := l.path("tanguy_cat_spinal_cord")

	vols := make([]*nifti.Volume, len(histologyFiles))
	for i, name := range histologyFiles {
		vol, err := nifti.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("loading histology map %s: %w", name, err)
		}
		vols[i] = vol
	}

	signal, err := nifti.Load(filepath.Join(dir, "tanguy_spinal_cord_2D.nii.gz"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading spinal cord signal: %w", err)
	}

	ds := &SpinalCord2D{
		Signal: signal,
		Histology: Histology{
			AxonEquivDiameter:                vols[0],
			AxonEquivDiameterStd:             vols[1],
			AxonEquivDiameterVolumeCorrected: vols[2],
			RestrictedFraction:               vols[3],
			MyelinVolumeFraction:             vols[4],
			GRatio:                           vols[5],
			NumberAxons:                      vols[6],
		},
		Mask: positiveMask(vols[3]),
	}

	sch, err := scheme.DuvalCatSpinalCord2D(l.dir)
	if err != nil {
		return nil, nil, err
	}

	l.notice("duval_cat_spinal_cord_2d", duvalAttribution)
	return sch, ds, nil
}

// positiveMask marks voxels with strictly positive values, appending a
// trailing singleton axis so the mask broadcasts against the 4D signal.
func positiveMask(v *nifti.Volume) Mask {
	m := Mask{
		Dims: append(v.Shape(), 1),
		Data: make([]bool, len(v.Data)),
	}
	for i, x := range v.Data {
		m.Data[i] = x > 0
	}
	return m
}
