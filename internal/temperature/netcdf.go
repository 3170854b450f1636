package temperature

import (
	"errors"
	"fmt"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// ReadField opens a NetCDF file and decodes its 2 m temperature variable
// together with the latitude/longitude coordinate variables.
func ReadField(path string) (*Field, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer nc.Close()

	variables := nc.ListVariables()
	name, err := ResolveVariable(variables)
	if err != nil {
		var notFound *VariableNotFoundError
		if errors.As(err, &notFound) {
			notFound.Path = path
		}
		return nil, err
	}

	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", name, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	shape, err := shapeOf(nc, vg)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	field, err := NewField(name, vg.Dimensions(), shape, raw, vg.Attributes())
	if err != nil {
		return nil, err
	}

	for _, dim := range field.Dims {
		if !slices.Contains(latitudeNames, dim) && !slices.Contains(longitudeNames, dim) {
			continue
		}
		if coords, err := coordinate(nc, dim); err == nil {
			field.Coords[dim] = coords
		}
	}
	return field, nil
}

func coordinate(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, err
	}
	return flatten(raw)
}

// shapeOf resolves the length of every dimension of vg.
func shapeOf(nc api.Group, vg api.VarGetter) ([]int64, error) {
	dims := vg.Dimensions()
	shape := make([]int64, len(dims))
	for i, dim := range dims {
		n, ok := nc.GetDimension(dim)
		if !ok {
			return nil, fmt.Errorf("dimension %q not found", dim)
		}
		shape[i] = int64(n)
	}
	return shape, nil
}
