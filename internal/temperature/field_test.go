package temperature

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/aoi"
)

type attrs map[string]interface{}

func (a attrs) Get(key string) (interface{}, bool) {
	v, ok := a[key]
	return v, ok
}

type passthrough struct{}

func (passthrough) Project(_, _ string, _, _ []float64) error { return nil }

// era5Field is one time step on a 3x4 grid: latitudes 46..45.5, longitudes 12..12.75.
func era5Field(t *testing.T) *Field {
	t.Helper()
	raw := [][][]int16{{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, -32767},
	}}
	f, err := NewField("t2m", []string{"valid_time", "latitude", "longitude"}, []int64{1, 3, 4}, raw,
		attrs{"scale_factor": 0.5, "add_offset": 280.0, "_FillValue": int16(-32767), "units": "K"})
	require.NoError(t, err)
	f.Coords["latitude"] = []float64{46, 45.75, 45.5}
	f.Coords["longitude"] = []float64{12, 12.25, 12.5, 12.75}
	return f
}

func TestNewFieldDecodes(t *testing.T) {
	f := era5Field(t)
	require.Len(t, f.Values, 12)
	assert.Equal(t, 280.0, f.Values[0])
	assert.Equal(t, 283.0, f.Values[6])
	assert.True(t, math.IsNaN(f.Values[11]))
}

func TestNewFieldAttributeForms(t *testing.T) {
	f, err := NewField("t2m", []string{"x"}, []int64{3}, []float32{1, 2, -999},
		attrs{"scale_factor": []float64{2}, "missing_value": float32(-999)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.Values[0])
	assert.Equal(t, 4.0, f.Values[1])
	assert.True(t, math.IsNaN(f.Values[2]))
}

func TestNewFieldRejectsBadInput(t *testing.T) {
	_, err := NewField("t2m", []string{"x"}, []int64{4}, []float64{1, 2}, nil)
	assert.ErrorContains(t, err, "shape")

	_, err = NewField("t2m", []string{"x"}, []int64{1}, []string{"a"}, nil)
	assert.ErrorContains(t, err, "unsupported")
}

func TestFieldSubset(t *testing.T) {
	f := era5Field(t)

	sub, ok := f.Subset([4]float64{12.2, 45.6, 12.6, 46.0})
	require.True(t, ok)
	// rows 46 and 45.75, columns 12.25 and 12.5
	assert.Equal(t, []float64{280.5, 281, 282.5, 283}, sub)

	sub, ok = f.Subset([4]float64{20, 20, 21, 21})
	assert.True(t, ok)
	assert.Empty(t, sub)

	delete(f.Coords, "longitude")
	_, ok = f.Subset([4]float64{12, 45, 13, 46})
	assert.False(t, ok)
}

func TestFieldSubsetWrapsLongitude(t *testing.T) {
	f, err := NewField("t2m", []string{"lat", "lon"}, []int64{1, 3}, []float64{1, 2, 3}, nil)
	require.NoError(t, err)
	f.Coords["lat"] = []float64{10}
	f.Coords["lon"] = []float64{0, 180, 350}

	sub, ok := f.Subset([4]float64{-15, 0, 5, 20})
	require.True(t, ok)
	assert.Equal(t, []float64{1, 3}, sub)
}

func TestTransformer(t *testing.T) {
	area, err := aoi.New(orb.MultiPolygon{{{{12.2, 45.6}, {12.6, 45.6}, {12.6, 46}, {12.2, 46}, {12.2, 45.6}}}}, aoi.WGS84)
	require.NoError(t, err)

	newTransformer := func(subset bool, read func(string) (*Field, error)) *Transformer {
		tr := NewTransformer(passthrough{}, subset, zap.NewNop())
		tr.read = read
		return tr
	}
	fromFixture := func(string) (*Field, error) { return era5Field(t), nil }

	t.Run("whole grid", func(t *testing.T) {
		stats, err := newTransformer(false, fromFixture).Transform(context.Background(), "era5.nc", area)
		require.NoError(t, err)
		assert.Equal(t, 11, stats.Samples)
		assert.True(t, stats.FromKelvin)
		assert.InDelta(t, 280+2.5-KelvinOffset, stats.Mean, 1e-9)
	})

	t.Run("AOI subset", func(t *testing.T) {
		stats, err := newTransformer(true, fromFixture).Transform(context.Background(), "era5.nc", area)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Samples)
		assert.InDelta(t, 281.75-KelvinOffset, stats.Mean, 1e-9)
	})

	t.Run("variable not found", func(t *testing.T) {
		read := func(path string) (*Field, error) {
			return nil, &VariableNotFoundError{Path: path, Available: []string{"u10"}}
		}
		_, err := newTransformer(true, read).Transform(context.Background(), "era5.nc", area)
		var notFound *VariableNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "era5.nc", notFound.Path)
	})

	t.Run("read failure", func(t *testing.T) {
		read := func(string) (*Field, error) { return nil, errors.New("corrupt") }
		_, err := newTransformer(false, read).Transform(context.Background(), "era5.nc", area)
		assert.ErrorContains(t, err, "corrupt")
	})
}
