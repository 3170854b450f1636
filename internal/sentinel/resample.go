package sentinel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/raster"
)

// resampleBilinear interpolates src onto dst. Destination pixel centres are
// projected into the source CRS and sampled with bilinear weights over the
// four surrounding source pixel centres. Invalid neighbours are dropped and
// the remaining weights renormalised; a pixel with no valid neighbour, or
// whose centre lies outside the source extent, gets the source fill value.
func resampleBilinear(src *clippedBand, dst raster.Grid, p raster.Projector) (*mat.Dense, error) {
	inv, err := src.grid.Transform.Invert()
	if err != nil {
		return nil, err
	}

	n := dst.Width * dst.Height
	xs := make([]float64, n)
	ys := make([]float64, n)
	for row := 0; row < dst.Height; row++ {
		for col := 0; col < dst.Width; col++ {
			i := row*dst.Width + col
			xs[i], ys[i] = dst.PixelCenter(col, row)
		}
	}
	if dst.CRS != src.grid.CRS {
		if err := p.Project(dst.CRS, src.grid.CRS, xs, ys); err != nil {
			return nil, &ReprojectionError{From: dst.CRS, To: src.grid.CRS, Err: err}
		}
	}

	out := make([]float64, n)
	for i := range out {
		col, row := inv.Apply(xs[i], ys[i])
		out[i] = src.sample(col, row)
	}
	return mat.NewDense(dst.Height, dst.Width, out), nil
}

// sample interpolates at fractional pixel-edge coordinates (col, row).
func (c *clippedBand) sample(col, row float64) float64 {
	w, h := float64(c.grid.Width), float64(c.grid.Height)
	if col < 0 || row < 0 || col > w || row > h {
		return c.fill
	}

	// shift to pixel-centre space and clamp so edges never extrapolate
	fx := clampFloat(col-0.5, 0, w-1)
	fy := clampFloat(row-0.5, 0, h-1)
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := min(x0+1, c.grid.Width-1), min(y0+1, c.grid.Height-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	taps := [4]struct {
		x, y int
		w    float64
	}{
		{x0, y0, (1 - tx) * (1 - ty)},
		{x1, y0, tx * (1 - ty)},
		{x0, y1, (1 - tx) * ty},
		{x1, y1, tx * ty},
	}

	var sum, weight float64
	for _, tp := range taps {
		i := tp.y*c.grid.Width + tp.x
		if tp.w == 0 || !c.valid[i] {
			continue
		}
		sum += tp.w * c.data[i]
		weight += tp.w
	}
	if weight == 0 {
		return c.fill
	}
	return sum / weight
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
