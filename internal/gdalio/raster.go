package gdalio

import (
	"errors"
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/eo-etl/internal/raster"
)

// RegisterDrivers registers every GDAL driver. Call once at startup.
func RegisterDrivers() {
	godal.RegisterAll()
}

func ignoreWarnings() godal.ErrorHandler {
	return func(ec godal.ErrorCategory, code int, msg string) error {
		if ec <= godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}
}

// Opener opens the first band of any GDAL-readable raster (JP2, GeoTIFF, ...).
type Opener struct{}

func (Opener) Open(path string) (raster.Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly(), godal.ErrLogger(ignoreWarnings()))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	st := ds.Structure()
	if st.NBands < 1 {
		ds.Close()
		return nil, fmt.Errorf("%s has no raster band", path)
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}
	return &gdalDataset{
		ds:   ds,
		band: ds.Bands()[0],
		grid: raster.Grid{Width: st.SizeX, Height: st.SizeY, Transform: raster.GeoTransform(gt), CRS: ds.Projection()},
	}, nil
}

type gdalDataset struct {
	ds   *godal.Dataset
	band godal.Band
	grid raster.Grid
}

func (d *gdalDataset) Grid() raster.Grid { return d.grid }

func (d *gdalDataset) NoData() (float64, bool) { return d.band.NoData() }

func (d *gdalDataset) ReadWindow(w raster.Window) ([]float64, error) {
	buf := make([]float64, w.Width*w.Height)
	if err := d.band.Read(w.Col, w.Row, buf, w.Width, w.Height); err != nil {
		return nil, fmt.Errorf("failed to read window %+v: %w", w, err)
	}
	return buf, nil
}

func (d *gdalDataset) Close() error { return d.ds.Close() }

// GeoTIFFWriter persists single-band float32 arrays as GeoTIFF with NaN no-data.
type GeoTIFFWriter struct{}

func (GeoTIFFWriter) WriteFloat32(path string, meta raster.Metadata, data []float32) error {
	if len(data) != meta.Width*meta.Height {
		return fmt.Errorf("data has %d samples, grid needs %d", len(data), meta.Width*meta.Height)
	}
	ds, err := godal.Create(godal.GTiff, path, meta.Count, godal.Float32, meta.Width, meta.Height,
		godal.CreationOption("COMPRESS=DEFLATE", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := ds.SetGeoTransform(meta.Transform); err != nil {
		ds.Close()
		return fmt.Errorf("failed to set geotransform: %w", err)
	}
	if meta.CRS != "" {
		if err := ds.SetProjection(meta.CRS); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set projection: %w", err)
		}
	}
	band := ds.Bands()[0]
	if err := band.SetNoData(math.NaN()); err != nil {
		ds.Close()
		return fmt.Errorf("failed to set nodata: %w", err)
	}
	if err := band.Write(0, 0, data, meta.Width, meta.Height); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write band: %w", err)
	}
	return ds.Close()
}
