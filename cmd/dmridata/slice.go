package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmridata/pkg/nifti"
	"dmridata/pkg/visualization"
)

func newSliceCmd() *cobra.Command {
	var (
		axis   string
		outDir string
		volIdx int
	)
	cmd := &cobra.Command{
		Use:   "slice <hcp|spinalcord>",
		Short: "Export slice JPEGs of an example volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if axis == "" {
				axis = cfg.Slices.Axis
			}
			if outDir == "" {
				outDir = cfg.Slices.OutputDir
			}
			if !cmd.Flags().Changed("volume") {
				volIdx = cfg.Slices.VolumeIndex
			}

			loader := newLoader()
			var vol *nifti.Volume
			switch args[0] {
			case "hcp":
				_, hcpVol, err := loader.WuMinnHCPCoronalSlice()
				if err != nil {
					return err
				}
				vol = hcpVol
			case "spinalcord":
				_, sc, err := loader.DuvalCatSpinalCord2D()
				if err != nil {
					return err
				}
				vol = sc.Signal
			default:
				return fmt.Errorf("unknown dataset %q (want hcp or spinalcord)", args[0])
			}

			viewer, err := visualization.NewViewer(vol, volIdx)
			if err != nil {
				return err
			}
			if err := viewer.SaveSliceSequence(axis, outDir); err != nil {
				return err
			}
			fmt.Printf("Saved %s-axis slices to %s\n", axis, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&axis, "axis", "", "Axis to slice along (x, y or z)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write slice JPEGs to")
	cmd.Flags().IntVar(&volIdx, "volume", 0, "Volume index of a 4D dataset")
	return cmd
}
