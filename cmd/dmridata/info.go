package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmridata/pkg/scheme"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <hcp|spinalcord|parallel|dispersed>",
		Short: "Print a summary of one example dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := newLoader()

			switch args[0] {
			case "hcp":
				sch, vol, err := loader.WuMinnHCPCoronalSlice()
				if err != nil {
					return err
				}
				fmt.Printf("HCP coronal slice: dims %v, voxel size %.2fx%.2fx%.2f mm\n",
					vol.Shape(), vol.PixDim[0], vol.PixDim[1], vol.PixDim[2])
				printScheme(sch)

			case "spinalcord":
				sch, ds, err := loader.DuvalCatSpinalCord2D()
				if err != nil {
					return err
				}
				masked := 0
				for _, in := range ds.Mask.Data {
					if in {
						masked++
					}
				}
				fmt.Printf("Duval cat spinal cord 2D: signal dims %v, %d/%d voxels in mask\n",
					ds.Signal.Shape(), masked, len(ds.Mask.Data))
				printScheme(sch)

			case "parallel":
				sch, ds, err := loader.SyntheticCaminoParallel()
				if err != nil {
					return err
				}
				rows, cols := ds.SignalAttenuation.Dims()
				fmt.Printf("Camino parallel: %d samples, signal %dx%d\n", ds.Len(), rows, cols)
				printScheme(sch)

			case "dispersed":
				sch, ds, err := loader.SyntheticCaminoDispersed()
				if err != nil {
					return err
				}
				rows, cols := ds.SignalAttenuation.Dims()
				fmt.Printf("Camino dispersed: %d samples, signal %dx%d\n", ds.Len(), rows, cols)
				printScheme(sch)

			default:
				return fmt.Errorf("unknown dataset %q (want hcp, spinalcord, parallel or dispersed)", args[0])
			}
			return nil
		},
	}
}

func printScheme(s *scheme.AcquisitionScheme) {
	b0 := 0
	for _, unweighted := range s.B0Mask() {
		if unweighted {
			b0++
		}
	}
	fmt.Printf("Scheme %s: %d measurements (%d b0)\n", s.Name, s.Len(), b0)
}
