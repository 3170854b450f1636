package sentinel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/raster"
)

const utm = "EPSG:32633"

type passthrough struct{}

func (passthrough) Project(_, _ string, _, _ []float64) error { return nil }

type failingProjector struct{}

func (failingProjector) Project(_, _ string, _, _ []float64) error {
	return errors.New("no transform available")
}

func grid(width, height int, size float64) raster.Grid {
	return raster.Grid{
		Width:     width,
		Height:    height,
		Transform: raster.GeoTransform{0, size, 0, 100, 0, -size},
		CRS:       utm,
	}
}

func constant(t *testing.T, g raster.Grid, v float64) *raster.InMemory {
	t.Helper()
	data := make([]float64, g.Width*g.Height)
	for i := range data {
		data[i] = v
	}
	ds, err := raster.NewInMemory(g, data)
	require.NoError(t, err)
	return ds
}

func ramp(t *testing.T, g raster.Grid) *raster.InMemory {
	t.Helper()
	data := make([]float64, g.Width*g.Height)
	for i := range data {
		data[i] = float64(i)
	}
	ds, err := raster.NewInMemory(g, data)
	require.NoError(t, err)
	return ds
}

func squareAOI(t *testing.T, x0, y0, x1, y1 float64) *aoi.AOI {
	t.Helper()
	a, err := aoi.New(orb.MultiPolygon{{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}}, utm)
	require.NoError(t, err)
	return a
}

// sceneOpener serves a full band set: 10 m bands on a 10x10 grid and
// 20 m bands on a 5x5 grid covering the same 100 m square.
func sceneOpener(t *testing.T) (raster.MemoryOpener, map[BandID]string) {
	opener := raster.MemoryOpener{
		"B02.jp2": constant(t, grid(10, 10, 10), 0.05),
		"B04.jp2": ramp(t, grid(10, 10, 10)),
		"B05.jp2": constant(t, grid(5, 5, 20), 0.2),
		"B08.jp2": constant(t, grid(10, 10, 10), 0.5),
		"B11.jp2": constant(t, grid(5, 5, 20), 0.3),
	}
	paths := map[BandID]string{
		B2: "B02.jp2", B4: "B04.jp2", B5: "B05.jp2", B8: "B08.jp2", B11: "B11.jp2",
	}
	return opener, paths
}

func TestAlignMissingBands(t *testing.T) {
	opener, paths := sceneOpener(t)
	aligner := NewAligner(opener, passthrough{})
	area := squareAOI(t, 0, 0, 100, 100)

	for _, id := range RequiredBands {
		t.Run(fmt.Sprintf("without %s", id), func(t *testing.T) {
			partial := make(map[BandID]string)
			for k, v := range paths {
				if k != id {
					partial[k] = v
				}
			}
			_, err := aligner.Align(context.Background(), partial, area, ReferenceBand)

			var missing *MissingBandError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []BandID{id}, missing.Bands)
		})
	}

	t.Run("several missing are listed in band order", func(t *testing.T) {
		_, err := aligner.Align(context.Background(), map[BandID]string{B8: "B08.jp2"}, area, ReferenceBand)
		var missing *MissingBandError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []BandID{B2, B4, B5, B11}, missing.Bands)
		assert.Equal(t, "missing required bands: B2, B4, B5, B11", err.Error())
	})
}

func TestAlignSharesReferenceShape(t *testing.T) {
	opener, paths := sceneOpener(t)
	aligned, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, squareAOI(t, 0, 0, 100, 100), ReferenceBand)
	require.NoError(t, err)

	assert.Equal(t, 10, aligned.Grid.Width)
	assert.Equal(t, 10, aligned.Grid.Height)
	require.Len(t, aligned.Bands, 5)
	for id, band := range aligned.Bands {
		r, c := band.Dims()
		assert.Equal(t, 10, r, "rows of %s", id)
		assert.Equal(t, 10, c, "cols of %s", id)
	}

	// constant 20 m bands stay constant once resampled
	for _, v := range aligned.Band(B5).RawMatrix().Data {
		assert.InDelta(t, 0.2, v, 1e-12)
	}
	for _, v := range aligned.Band(B11).RawMatrix().Data {
		assert.InDelta(t, 0.3, v, 1e-12)
	}
}

func TestAlignIdentityWhenShapesMatch(t *testing.T) {
	opener, paths := sceneOpener(t)
	aligned, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, squareAOI(t, 0, 0, 100, 100), ReferenceBand)
	require.NoError(t, err)

	want := make([]float64, 100)
	for i := range want {
		want[i] = float64(i)
	}
	assert.Equal(t, want, aligned.Band(B4).RawMatrix().Data)
	assert.True(t, mat.Equal(aligned.Band(B2), mat.NewDense(10, 10, filled(100, 0.05))))
}

func TestAlignCropsToAOI(t *testing.T) {
	opener, paths := sceneOpener(t)
	aligned, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, squareAOI(t, 0, 50, 50, 100), ReferenceBand)
	require.NoError(t, err)

	assert.Equal(t, 5, aligned.Grid.Width)
	assert.Equal(t, 5, aligned.Grid.Height)
	assert.Equal(t, raster.GeoTransform{0, 10, 0, 100, 0, -10}, aligned.Grid.Transform)
	// first row of the ramp, cropped
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, aligned.Band(B4).RawRowView(0))
	for id, band := range aligned.Bands {
		r, c := band.Dims()
		assert.Equal(t, [2]int{5, 5}, [2]int{r, c}, "shape of %s", id)
	}
}

func TestAlignMasksOutsidePolygon(t *testing.T) {
	opener, paths := sceneOpener(t)
	// right triangle over the lower left half of the scene
	area, err := aoi.New(orb.MultiPolygon{{{{0, 0}, {100, 0}, {0, 100}, {0, 0}}}}, utm)
	require.NoError(t, err)

	aligned, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, area, ReferenceBand)
	require.NoError(t, err)

	b4 := aligned.Band(B4)
	// top right pixel centre (95, 95) is outside the triangle
	assert.Equal(t, 0.0, b4.At(0, 9))
	// bottom left pixel centre (5, 5) is inside
	assert.Equal(t, 90.0, b4.At(9, 0))

	require.Len(t, aligned.Valid, 100)
	assert.True(t, aligned.Masked(0, 9))
	assert.False(t, aligned.Masked(9, 0))

	ix, err := ComputeIndexes(aligned)
	require.NoError(t, err)
	for _, name := range IndexNames {
		assert.True(t, math.IsNaN(ix.Values[name].At(0, 9)), "%s outside the area", name)
		assert.False(t, math.IsNaN(ix.Values[name].At(9, 0)), "%s inside the area", name)
	}
}

func TestAlignEmptyClip(t *testing.T) {
	opener, paths := sceneOpener(t)
	_, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, squareAOI(t, 500, 500, 600, 600), ReferenceBand)

	var empty *EmptyClipError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, B4, empty.Band)
}

func TestAlignReadError(t *testing.T) {
	opener, paths := sceneOpener(t)
	paths[B8] = "missing.jp2"

	_, err := NewAligner(opener, passthrough{}).
		Align(context.Background(), paths, squareAOI(t, 0, 0, 100, 100), ReferenceBand)

	var readErr *RasterReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "missing.jp2", readErr.Path)
	assert.Equal(t, B8, readErr.Band)
}

func TestAlignReprojectionError(t *testing.T) {
	opener, paths := sceneOpener(t)
	area, err := aoi.New(orb.MultiPolygon{{{{12, 45}, {13, 45}, {13, 46}, {12, 45}}}}, aoi.WGS84)
	require.NoError(t, err)

	_, err = NewAligner(opener, failingProjector{}).
		Align(context.Background(), paths, area, ReferenceBand)

	var reproj *ReprojectionError
	require.ErrorAs(t, err, &reproj)
	assert.Equal(t, aoi.WGS84, reproj.From)
	assert.Equal(t, utm, reproj.To)
}

func TestAlignHonoursCancellation(t *testing.T) {
	opener, paths := sceneOpener(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAligner(opener, passthrough{}).
		Align(ctx, paths, squareAOI(t, 0, 0, 100, 100), ReferenceBand)
	assert.ErrorIs(t, err, context.Canceled)
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
