package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/config"
	"github.com/forest-guardian/eo-etl/internal/gdalio"
	"github.com/forest-guardian/eo-etl/internal/load"
	"github.com/forest-guardian/eo-etl/internal/logger"
)

type options struct {
	envFile string
	quiet   bool
}

// app holds what every sub-command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	client *http.Client
	quiet  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "Earth-observation ETL: Sentinel-2 vegetation indices and ERA5 temperature",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "environment file to load before reading configuration")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide banner and download progress bars")

	cmd.AddCommand(newRunCmd(opts), newIndicesCmd(opts), newTemperatureCmd(opts))
	return cmd
}

func setup(opts *options) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	gdalio.RegisterDrivers()
	if !opts.quiet {
		printBanner()
	}
	log.Info("configuration loaded",
		zap.String("base_dir", cfg.Paths.BaseDir),
		zap.Time("start", cfg.Period.Start),
		zap.Time("end", cfg.Period.End))
	return &app{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.HTTP.Timeout},
		quiet:  opts.quiet,
	}, nil
}

func (a *app) loadArea() (*aoi.AOI, error) {
	return aoi.Load(a.cfg.Paths.AOIZipPath, a.cfg.Paths.RawDir, gdalio.ShapefileReader{})
}

func (a *app) loader() *load.Loader {
	return load.NewLoader(a.cfg.Paths.ProcessedDir, gdalio.GeoTIFFWriter{}, a.cfg.Load.WritePreviews, a.log)
}

func (a *app) close() {
	_ = a.log.Sync()
}
