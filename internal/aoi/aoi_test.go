package aoi

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shiftProjector struct {
	dx, dy float64
	err    error
	calls  int
}

func (s *shiftProjector) Project(_, _ string, xs, ys []float64) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	for i := range xs {
		xs[i] += s.dx
		ys[i] += s.dy
	}
	return nil
}

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func TestNewRejectsEmptyGeometry(t *testing.T) {
	_, err := New(nil, "EPSG:4326")
	assert.ErrorIs(t, err, ErrEmptyAOI)
}

func TestContainsAndBounds(t *testing.T) {
	a, err := New(orb.MultiPolygon{square(0, 0, 10, 10), square(20, 0, 30, 5)}, "EPSG:32633")
	require.NoError(t, err)

	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{30, 10}}, a.Bounds())
	assert.True(t, a.Contains(orb.Point{5, 5}))
	assert.True(t, a.Contains(orb.Point{25, 2}))
	assert.False(t, a.Contains(orb.Point{15, 5}))
}

func TestReproject(t *testing.T) {
	a, err := New(orb.MultiPolygon{square(0, 0, 10, 10)}, "EPSG:32633")
	require.NoError(t, err)

	t.Run("same CRS is a no-op", func(t *testing.T) {
		p := &shiftProjector{}
		got, err := a.Reproject(p, "EPSG:32633")
		require.NoError(t, err)
		assert.Same(t, a, got)
		assert.Zero(t, p.calls)
	})

	t.Run("projects every vertex", func(t *testing.T) {
		p := &shiftProjector{dx: 100, dy: -5}
		got, err := a.Reproject(p, "EPSG:4326")
		require.NoError(t, err)
		assert.Equal(t, "EPSG:4326", got.CRS)
		assert.Equal(t, orb.Bound{Min: orb.Point{100, -5}, Max: orb.Point{110, 5}}, got.Bounds())
		// source untouched
		assert.Equal(t, orb.Point{0, 0}, a.Geometry[0][0][0])
	})

	t.Run("projector failure", func(t *testing.T) {
		_, err := a.Reproject(&shiftProjector{err: errors.New("boom")}, "EPSG:4326")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("bbox in WGS84", func(t *testing.T) {
		bbox, err := a.BBox(&shiftProjector{dx: 1, dy: 2})
		require.NoError(t, err)
		assert.Equal(t, [4]float64{1, 2, 11, 12}, bbox)
	})
}

func TestFindShapefile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindShapefile(dir)
	assert.ErrorIs(t, err, ErrNoShapefile)

	_, err = FindShapefile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNoShapefile)

	sub := filepath.Join(dir, "aoi")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "area.dbf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "area.SHP"), nil, 0644))

	got, err := FindShapefile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, "area.SHP"), got)
}

type stubReader struct {
	path string
}

func (s *stubReader) ReadShapefile(path string) (*AOI, error) {
	s.path = path
	return New(orb.MultiPolygon{square(0, 0, 1, 1)}, WGS84)
}

func TestLoad(t *testing.T) {
	t.Run("no shapefile and no archive", func(t *testing.T) {
		_, err := Load("", t.TempDir(), &stubReader{})
		assert.ErrorIs(t, err, ErrNoShapefile)
	})

	t.Run("extracts the archive once", func(t *testing.T) {
		raw := t.TempDir()
		zipPath := filepath.Join(t.TempDir(), "aoi.zip")
		f, err := os.Create(zipPath)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		w, err := zw.Create("site/site.shp")
		require.NoError(t, err)
		_, err = w.Write([]byte("shp"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		reader := &stubReader{}
		a, err := Load(zipPath, raw, reader)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(raw, "site", "site.shp"), reader.path)
		assert.Equal(t, WGS84, a.CRS)

		// archive no longer needed once extracted
		require.NoError(t, os.Remove(zipPath))
		_, err = Load(zipPath, raw, reader)
		require.NoError(t, err)
	})
}
