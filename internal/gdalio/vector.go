package gdalio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/forest-guardian/eo-etl/internal/aoi"
)

// ShapefileReader reads AOI polygons through the OGR vector drivers.
type ShapefileReader struct{}

// ReadShapefile unions every polygon feature of the first layer.
func (ShapefileReader) ReadShapefile(path string) (*aoi.AOI, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, fmt.Errorf("%s has no layer", path)
	}
	layer := layers[0]

	var crs string
	if sr := layer.SpatialRef(); sr != nil {
		if crs, err = sr.WKT(); err != nil {
			return nil, fmt.Errorf("failed to export layer CRS: %w", err)
		}
	}

	var geometry orb.MultiPolygon
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		polys, err := featurePolygons(feat)
		feat.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read feature of %s: %w", path, err)
		}
		geometry = append(geometry, polys...)
	}
	return aoi.New(geometry, crs)
}

func featurePolygons(feat *godal.Feature) (orb.MultiPolygon, error) {
	g := feat.Geometry()
	if g == nil {
		return nil, nil
	}
	defer g.Close()
	raw, err := g.WKB()
	if err != nil {
		return nil, err
	}
	geom, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	switch v := geom.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}, nil
	case orb.MultiPolygon:
		return v, nil
	default:
		return nil, nil
	}
}
