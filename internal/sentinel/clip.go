package sentinel

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/raster"
)

// clippedBand is a band cropped to the AOI window in its native grid.
// Samples outside the AOI or equal to no-data are flagged invalid.
type clippedBand struct {
	grid  raster.Grid
	data  []float64
	valid []bool
	fill  float64
}

func (c *clippedBand) dense() *mat.Dense {
	return mat.NewDense(c.grid.Height, c.grid.Width, c.data)
}

// clip masks ds with area (already expressed in the dataset CRS) and crops
// it to the AOI bounds rounded outwards to whole pixels.
func clip(ds raster.Dataset, area *aoi.AOI, id BandID, path string) (*clippedBand, error) {
	grid := ds.Grid()
	win, ok, err := grid.Window(area.Bounds())
	if err != nil {
		return nil, &RasterReadError{Band: id, Path: path, Err: err}
	}
	if !ok {
		return nil, &EmptyClipError{Band: id, Path: path}
	}

	data, err := ds.ReadWindow(win)
	if err != nil {
		return nil, &RasterReadError{Band: id, Path: path, Err: err}
	}

	sub := grid.Sub(win)
	nodata, hasNoData := ds.NoData()
	fill := 0.0
	if hasNoData {
		fill = nodata
	}

	valid := make([]bool, len(data))
	inside := 0
	for row := 0; row < sub.Height; row++ {
		for col := 0; col < sub.Width; col++ {
			i := row*sub.Width + col
			x, y := sub.PixelCenter(col, row)
			if !area.Contains(orb.Point{x, y}) {
				data[i] = fill
				continue
			}
			inside++
			v := data[i]
			valid[i] = !math.IsNaN(v) && !(hasNoData && v == nodata)
		}
	}
	if inside == 0 {
		return nil, &EmptyClipError{Band: id, Path: path}
	}

	return &clippedBand{grid: sub, data: data, valid: valid, fill: fill}, nil
}
