package temperature

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fillValue = int16(-32767)

// writeCDF writes a classic NetCDF file with the given variables, added in order.
func writeCDF(t *testing.T, names []string, vars map[string]api.Variable) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "era5.nc")
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)
	for _, name := range names {
		require.NoError(t, cw.AddVar(name, vars[name]))
	}
	require.NoError(t, cw.Close())
	return path
}

func packedAttrs(t *testing.T) api.AttributeMap {
	t.Helper()
	om, err := util.NewOrderedMap(
		[]string{"scale_factor", "add_offset", "_FillValue"},
		map[string]interface{}{
			"scale_factor": 0.5,
			"add_offset":   250.0,
			"_FillValue":   fillValue,
		})
	require.NoError(t, err)
	return om
}

func era5File(t *testing.T) string {
	t.Helper()
	return writeCDF(t, []string{"latitude", "longitude", "t2m"}, map[string]api.Variable{
		"latitude":  {Values: []float32{45, 44}, Dimensions: []string{"latitude"}},
		"longitude": {Values: []float32{10, 10.25, 10.5}, Dimensions: []string{"longitude"}},
		"t2m": {
			Values: [][][]int16{{
				{100, 102, fillValue},
				{104, 106, 108},
			}},
			Dimensions: []string{"time", "latitude", "longitude"},
			Attributes: packedAttrs(t),
		},
	})
}

func TestReadField(t *testing.T) {
	field, err := ReadField(era5File(t))
	require.NoError(t, err)

	assert.Equal(t, "t2m", field.Name)
	assert.Equal(t, []string{"time", "latitude", "longitude"}, field.Dims)
	assert.Equal(t, []int64{1, 2, 3}, field.Shape)

	require.Len(t, field.Values, 6)
	assert.True(t, math.IsNaN(field.Values[2]), "fill value must decode to NaN")
	for i, want := range map[int]float64{0: 300, 1: 301, 3: 302, 4: 303, 5: 304} {
		assert.InDelta(t, want, field.Values[i], 1e-9, "sample %d", i)
	}

	assert.Equal(t, []float64{45, 44}, field.Coords["latitude"])
	assert.Equal(t, []float64{10, 10.25, 10.5}, field.Coords["longitude"])
}

func TestReadFieldSubsetsOnFileCoordinates(t *testing.T) {
	field, err := ReadField(era5File(t))
	require.NoError(t, err)

	sub, ok := field.Subset([4]float64{9.9, 44.9, 10.3, 45.1})
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{300, 301}, sub, 1e-9)

	stats, err := Summarize(field.Values)
	require.NoError(t, err)
	assert.True(t, stats.FromKelvin)
	assert.Equal(t, 5, stats.Samples)
	assert.InDelta(t, 302-KelvinOffset, stats.Mean, 1e-9)
}

func TestReadFieldWithoutTemperature(t *testing.T) {
	path := writeCDF(t, []string{"u10"}, map[string]api.Variable{
		"u10": {Values: []float32{1, 2}, Dimensions: []string{"longitude"}},
	})

	_, err := ReadField(path)
	var notFound *VariableNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, path, notFound.Path)
	assert.Equal(t, []string{"u10"}, notFound.Available)
}

func TestReadFieldMissingFile(t *testing.T) {
	_, err := ReadField(filepath.Join(t.TempDir(), "absent.nc"))
	assert.Error(t, err)
}
