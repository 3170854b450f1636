package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/gdalio"
	"github.com/forest-guardian/eo-etl/internal/sentinel"
)

func newIndicesCmd(opts *options) *cobra.Command {
	var bands string
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Compute vegetation indices from an extracted Sentinel-2 product folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bands == "" {
				return errors.New("--bands is required")
			}
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.close()

			area, err := a.loadArea()
			if err != nil {
				return err
			}
			projector := gdalio.Projector{}
			tr := sentinel.NewTransformer(sentinel.NewAligner(gdalio.Opener{}, projector), a.log)
			indexes, err := tr.Transform(cmd.Context(), bands, area)
			if err != nil {
				return err
			}
			res, err := a.loader().Load(cmd.Context(), indexes, nil)
			if err != nil {
				return err
			}
			a.log.Info("indices written", zap.Strings("files", res.Indexes), zap.String("summary", res.Summary))
			printIndexes(indexes)
			return nil
		},
	}
	cmd.Flags().StringVar(&bands, "bands", "", "folder containing the Sentinel-2 band files")
	return cmd
}
