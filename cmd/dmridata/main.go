package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"dmridata/pkg/config"
	"dmridata/pkg/data"
)

var (
	cfgPath string
	dataDir string
	cfg     *config.Config
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmridata",
		Short: "Inspect and visualize the bundled diffusion-MRI example datasets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.Data.Dir = dataDir
			}
			level := zerolog.WarnLevel
			if cfg.Output.Verbose {
				level = zerolog.InfoLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "dmridata.yaml", "Path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Example data directory (overrides config and $DMRIDATA_DIR)")

	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newSliceCmd())
	cmd.AddCommand(newCorrelateCmd())
	return cmd
}

func newLoader() *data.Loader {
	return data.NewLoader(cfg.Data.Dir, data.WithLogger(log.Logger))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
