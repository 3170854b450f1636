package raster

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// GeoTransform is an affine pixel to CRS mapping in GDAL coefficient order:
// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5].
type GeoTransform [6]float64

// ErrDegenerateTransform is returned when a geotransform cannot be inverted.
var ErrDegenerateTransform = errors.New("geotransform is not invertible")

// Apply maps pixel coordinates (col, row) to CRS coordinates.
func (gt GeoTransform) Apply(col, row float64) (float64, float64) {
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// Invert returns the transform mapping CRS coordinates back to pixel coordinates.
func (gt GeoTransform) Invert() (GeoTransform, error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if math.Abs(det) < 1e-15 {
		return GeoTransform{}, ErrDegenerateTransform
	}
	var inv GeoTransform
	inv[1] = gt[5] / det
	inv[2] = -gt[2] / det
	inv[4] = -gt[4] / det
	inv[5] = gt[1] / det
	inv[0] = -(inv[1]*gt[0] + inv[2]*gt[3])
	inv[3] = -(inv[4]*gt[0] + inv[5]*gt[3])
	return inv, nil
}

// Grid is the georeferencing of a raster: its shape, transform and CRS.
type Grid struct {
	Width     int
	Height    int
	Transform GeoTransform
	CRS       string
}

// Window is a pixel rectangle inside a grid.
type Window struct {
	Col    int
	Row    int
	Width  int
	Height int
}

// SameShape reports whether both grids have the same pixel dimensions.
func (g Grid) SameShape(other Grid) bool {
	return g.Width == other.Width && g.Height == other.Height
}

// PixelCenter returns the CRS coordinates of the centre of pixel (col, row).
func (g Grid) PixelCenter(col, row int) (float64, float64) {
	return g.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
}

// Window returns the smallest pixel window covering bound, clipped to the
// grid extent. ok is false when bound does not overlap the grid.
func (g Grid) Window(bound orb.Bound) (Window, bool, error) {
	inv, err := g.Transform.Invert()
	if err != nil {
		return Window{}, false, err
	}
	corners := [4]orb.Point{
		bound.Min,
		{bound.Max[0], bound.Min[1]},
		{bound.Min[0], bound.Max[1]},
		bound.Max,
	}
	minCol, minRow := math.Inf(1), math.Inf(1)
	maxCol, maxRow := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		col, row := inv.Apply(c[0], c[1])
		minCol, maxCol = math.Min(minCol, col), math.Max(maxCol, col)
		minRow, maxRow = math.Min(minRow, row), math.Max(maxRow, row)
	}

	// tolerate floating point noise on bounds that sit on pixel edges
	const tol = 1e-6
	col0 := clampInt(int(math.Floor(minCol+tol)), 0, g.Width)
	col1 := clampInt(int(math.Ceil(maxCol-tol)), 0, g.Width)
	row0 := clampInt(int(math.Floor(minRow+tol)), 0, g.Height)
	row1 := clampInt(int(math.Ceil(maxRow-tol)), 0, g.Height)
	if col1 <= col0 || row1 <= row0 {
		return Window{}, false, nil
	}
	return Window{Col: col0, Row: row0, Width: col1 - col0, Height: row1 - row0}, true, nil
}

// Sub returns the grid of window w.
func (g Grid) Sub(w Window) Grid {
	x0, y0 := g.Transform.Apply(float64(w.Col), float64(w.Row))
	gt := g.Transform
	gt[0], gt[3] = x0, y0
	return Grid{Width: w.Width, Height: w.Height, Transform: gt, CRS: g.CRS}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
