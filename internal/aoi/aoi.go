package aoi

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/forest-guardian/eo-etl/internal/raster"
)

// WGS84 is the CRS of bounding boxes sent to data providers.
const WGS84 = "EPSG:4326"

var ErrEmptyAOI = errors.New("area of interest has no polygon")

// AOI is the area of interest: one or more polygons in a single CRS.
type AOI struct {
	Geometry orb.MultiPolygon
	CRS      string
}

func New(geometry orb.MultiPolygon, crs string) (*AOI, error) {
	if len(geometry) == 0 {
		return nil, ErrEmptyAOI
	}
	return &AOI{Geometry: geometry, CRS: crs}, nil
}

func (a *AOI) Bounds() orb.Bound {
	return a.Geometry.Bound()
}

// Contains reports whether p (in the AOI CRS) lies inside the AOI.
func (a *AOI) Contains(p orb.Point) bool {
	return planar.MultiPolygonContains(a.Geometry, p)
}

// Reproject returns the AOI expressed in dstCRS. The receiver is returned
// unchanged when it is already in dstCRS.
func (a *AOI) Reproject(p raster.Projector, dstCRS string) (*AOI, error) {
	if a.CRS == dstCRS {
		return a, nil
	}
	if a.CRS == "" {
		return nil, errors.New("area of interest has no CRS")
	}

	var xs, ys []float64
	for _, poly := range a.Geometry {
		for _, ring := range poly {
			for _, pt := range ring {
				xs = append(xs, pt[0])
				ys = append(ys, pt[1])
			}
		}
	}
	if err := p.Project(a.CRS, dstCRS, xs, ys); err != nil {
		return nil, fmt.Errorf("failed to reproject area of interest: %w", err)
	}

	i := 0
	out := make(orb.MultiPolygon, len(a.Geometry))
	for pi, poly := range a.Geometry {
		out[pi] = make(orb.Polygon, len(poly))
		for ri, ring := range poly {
			r := make(orb.Ring, len(ring))
			for k := range ring {
				r[k] = orb.Point{xs[i], ys[i]}
				i++
			}
			out[pi][ri] = r
		}
	}
	return &AOI{Geometry: out, CRS: dstCRS}, nil
}

// BBox returns [minLon, minLat, maxLon, maxLat] of the AOI in WGS84.
func (a *AOI) BBox(p raster.Projector) ([4]float64, error) {
	geo, err := a.Reproject(p, WGS84)
	if err != nil {
		return [4]float64{}, err
	}
	b := geo.Bounds()
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}, nil
}
