package temperature

import (
	"fmt"
	"math"
	"reflect"
	"slices"
)

var (
	latitudeNames  = []string{"latitude", "lat"}
	longitudeNames = []string{"longitude", "lon"}
)

// Attributes is the subset of NetCDF variable attributes used for decoding.
type Attributes interface {
	Get(key string) (interface{}, bool)
}

// Field is a decoded gridded variable. Values are row-major over Shape
// and NaN where the file marks a sample missing.
type Field struct {
	Name   string
	Dims   []string
	Shape  []int64
	Values []float64
	Coords map[string][]float64
}

// NewField flattens raw (nested slices of any numeric type) and applies
// _FillValue, missing_value, scale_factor and add_offset.
func NewField(name string, dims []string, shape []int64, raw interface{}, attrs Attributes) (*Field, error) {
	values, err := flatten(raw)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	var size int64 = 1
	for _, n := range shape {
		size *= n
	}
	if int64(len(values)) != size {
		return nil, fmt.Errorf("variable %s has %d samples, shape %v needs %d", name, len(values), shape, size)
	}

	scale, offset := 1.0, 0.0
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		offset = v
	}
	fill, hasFill := attrFloat(attrs, "_FillValue")
	missing, hasMissing := attrFloat(attrs, "missing_value")

	for i, v := range values {
		if (hasFill && v == fill) || (hasMissing && v == missing) {
			values[i] = math.NaN()
			continue
		}
		values[i] = v*scale + offset
	}
	return &Field{Name: name, Dims: dims, Shape: shape, Values: values, Coords: map[string][]float64{}}, nil
}

// Subset returns the samples whose latitude/longitude cell centre lies in
// bbox [minLon, minLat, maxLon, maxLat]. ok is false when the field has no
// usable coordinate variables.
func (f *Field) Subset(bbox [4]float64) ([]float64, bool) {
	latAxis, lats := f.axis(latitudeNames)
	lonAxis, lons := f.axis(longitudeNames)
	if latAxis < 0 || lonAxis < 0 {
		return nil, false
	}

	strides := make([]int64, len(f.Shape))
	stride := int64(1)
	for i := len(f.Shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= f.Shape[i]
	}

	var out []float64
	for i, v := range f.Values {
		lat := lats[(int64(i)/strides[latAxis])%f.Shape[latAxis]]
		lon := normalizeLongitude(lons[(int64(i)/strides[lonAxis])%f.Shape[lonAxis]])
		if lat >= bbox[1] && lat <= bbox[3] && lon >= bbox[0] && lon <= bbox[2] {
			out = append(out, v)
		}
	}
	return out, true
}

func (f *Field) axis(names []string) (int, []float64) {
	for i, dim := range f.Dims {
		if !slices.Contains(names, dim) {
			continue
		}
		coords, ok := f.Coords[dim]
		if !ok || int64(len(coords)) != f.Shape[i] {
			return -1, nil
		}
		return i, coords
	}
	return -1, nil
}

func normalizeLongitude(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

func attrFloat(attrs Attributes, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	values, err := flatten(raw)
	if err != nil || len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

// flatten walks nested slices of numbers in row-major order.
func flatten(raw interface{}) ([]float64, error) {
	var out []float64
	var walk func(v reflect.Value) error
	walk = func(v reflect.Value) error {
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				if err := walk(v.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, v.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(v.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(v.Uint()))
		case reflect.Interface:
			return walk(v.Elem())
		default:
			return fmt.Errorf("unsupported sample type %s", v.Type())
		}
		return nil
	}
	if raw == nil {
		return nil, fmt.Errorf("no values")
	}
	if err := walk(reflect.ValueOf(raw)); err != nil {
		return nil, err
	}
	return out, nil
}
