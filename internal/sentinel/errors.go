package sentinel

import (
	"fmt"
	"strings"
)

// MissingBandError lists the required bands absent from the input.
type MissingBandError struct {
	Bands []BandID
}

func (e *MissingBandError) Error() string {
	names := make([]string, len(e.Bands))
	for i, b := range e.Bands {
		names[i] = string(b)
	}
	return fmt.Sprintf("missing required bands: %s", strings.Join(names, ", "))
}

// RasterReadError reports a band file that could not be opened or decoded.
type RasterReadError struct {
	Band BandID
	Path string
	Err  error
}

func (e *RasterReadError) Error() string {
	if e.Band != "" {
		return fmt.Sprintf("failed to read band %s from %s: %v", e.Band, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *RasterReadError) Unwrap() error { return e.Err }

// EmptyClipError reports an AOI that does not overlap a band.
type EmptyClipError struct {
	Band BandID
	Path string
}

func (e *EmptyClipError) Error() string {
	return fmt.Sprintf("area of interest does not intersect band %s (%s)", e.Band, e.Path)
}

// ReprojectionError reports a failed coordinate transformation.
type ReprojectionError struct {
	From string
	To   string
	Err  error
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("failed to reproject from %s to %s: %v", shortCRS(e.From), shortCRS(e.To), e.Err)
}

func (e *ReprojectionError) Unwrap() error { return e.Err }

func shortCRS(crs string) string {
	if len(crs) > 48 {
		return crs[:45] + "..."
	}
	return crs
}
