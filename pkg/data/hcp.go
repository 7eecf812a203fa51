package data

import (
	"fmt"
	"os"

	"dmridata/pkg/nifti"
	"dmridata/pkg/scheme"
)

const hcpAttribution = "This data slice originates from Subject 100307 of the Human " +
	"Connectome Project, WU-Minn Consortium (Principal Investigators: " +
	"David Van Essen and Kamil Ugurbil; 1U54MH091657) funded by the 16 " +
	"NIH Institutes and Centers that support the NIH Blueprint for " +
	"Neuroscience Research; and by the McDonnell Center for Systems " +
	"Neuroscience at Washington University."

// WuMinnHCPCoronalSlice returns an example coronal slice of WU-Minn HCP
// data, subject 100307, together with the HCP acquisition scheme. The
// slice is not distributed with the module; when it is absent the returned
// error wraps ErrNotDownloaded and carries setup instructions.
func (l *Loader) WuMinnHCPCoronalSlice() (*scheme.AcquisitionScheme, *nifti.Volume, error) {
	path := l.path("hcp", "hcp_example_slice", "coronal_slice.nii.gz")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: the example HCP slice is missing at %s; "+
			"follow the HCP tutorial to download the example data with your "+
			"own AWS credentials", ErrNotDownloaded, path)
	}

	vol, err := nifti.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading HCP coronal slice: %w", err)
	}

	sch, err := scheme.WuMinnHCP(l.dir)
	if err != nil {
		return nil, nil, err
	}

	l.notice("wu_minn_hcp_coronal_slice", hcpAttribution)
	return sch, vol, nil
}
