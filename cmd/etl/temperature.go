package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/gdalio"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

func newTemperatureCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "temperature",
		Short: "Summarise 2 m air temperature from an ERA5 NetCDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.close()

			var area *aoi.AOI
			if a.cfg.Temperature.SubsetAOI {
				if area, err = a.loadArea(); err != nil {
					a.log.Warn("area of interest unavailable, using whole grid", zap.Error(err))
				}
			}
			tr := temperature.NewTransformer(gdalio.Projector{}, a.cfg.Temperature.SubsetAOI, a.log)
			stats, err := tr.Transform(cmd.Context(), file, area)
			if err != nil {
				return err
			}
			res, err := a.loader().Load(cmd.Context(), nil, stats)
			if err != nil {
				return err
			}
			a.log.Info("temperature written", zap.String("file", res.Temperature), zap.String("summary", res.Summary))
			printStats(stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "ERA5 NetCDF file")
	return cmd
}
