package gdalio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
)

// Projector reprojects coordinates with OSR transforms.
type Projector struct{}

func (Projector) Project(srcCRS, dstCRS string, xs, ys []float64) error {
	if srcCRS == dstCRS {
		return nil
	}
	src, err := SpatialRef(srcCRS)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := SpatialRef(dstCRS)
	if err != nil {
		return err
	}
	defer dst.Close()
	if src.IsSame(dst) {
		return nil
	}

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return fmt.Errorf("failed to create transform: %w", err)
	}
	defer tr.Close()

	ok := make([]bool, len(xs))
	if err := tr.TransformEx(xs, ys, nil, ok); err != nil {
		return fmt.Errorf("failed to transform coordinates: %w", err)
	}
	for i, good := range ok {
		if !good {
			return fmt.Errorf("point (%f, %f) could not be transformed", xs[i], ys[i])
		}
	}
	return nil
}

// SpatialRef builds a spatial reference from "EPSG:<code>" or WKT.
// Geographic references use traditional lon/lat axis order.
func SpatialRef(crs string) (*godal.SpatialRef, error) {
	if code, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(crs)), "EPSG:"); ok {
		epsg, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("invalid EPSG code %q", crs)
		}
		sr, err := godal.NewSpatialRefFromEPSG(epsg)
		if err != nil {
			return nil, fmt.Errorf("failed to create spatial ref EPSG:%d: %w", epsg, err)
		}
		return sr, nil
	}
	if crs == "" {
		return nil, errors.New("empty CRS definition")
	}
	sr, err := godal.NewSpatialRefFromWKT(crs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CRS: %w", err)
	}
	return sr, nil
}
