package sentinel

import (
	"context"
	"errors"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/raster"
)

// AlignedBands holds every band on the reference grid.
// Valid flags, row-major, the reference pixels inside the AOI that carry
// data; a nil Valid marks every pixel usable.
type AlignedBands struct {
	Grid  raster.Grid
	Bands map[BandID]*mat.Dense
	Valid []bool
}

// Band returns the aligned array of id, or nil.
func (a *AlignedBands) Band(id BandID) *mat.Dense {
	return a.Bands[id]
}

// Masked reports whether pixel (i, j) lies outside the AOI or holds no data
// in the reference band.
func (a *AlignedBands) Masked(i, j int) bool {
	return a.Valid != nil && !a.Valid[i*a.Grid.Width+j]
}

// Aligner clips bands to an AOI and brings them onto a common grid.
type Aligner struct {
	opener    raster.Opener
	projector raster.Projector
}

func NewAligner(opener raster.Opener, projector raster.Projector) *Aligner {
	return &Aligner{opener: opener, projector: projector}
}

// Align clips the reference band to area and resamples every other band
// whose clipped shape differs onto the reference grid.
func (a *Aligner) Align(ctx context.Context, paths map[BandID]string, area *aoi.AOI, reference BandID) (*AlignedBands, error) {
	required := RequiredBands
	if !slices.Contains(required, reference) {
		required = append(slices.Clone(required), reference)
	}
	if missing := missingBands(paths, required); len(missing) > 0 {
		return nil, &MissingBandError{Bands: missing}
	}

	ref, err := a.clipBand(reference, paths[reference], area)
	if err != nil {
		return nil, err
	}
	aligned := &AlignedBands{
		Grid:  ref.grid,
		Bands: map[BandID]*mat.Dense{reference: ref.dense()},
		Valid: ref.valid,
	}

	ids := make([]BandID, 0, len(paths))
	for id := range paths {
		if id != reference {
			ids = append(ids, id)
		}
	}
	sortBands(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		band, err := a.clipBand(id, paths[id], area)
		if err != nil {
			return nil, err
		}
		if band.grid.SameShape(ref.grid) {
			aligned.Bands[id] = band.dense()
			continue
		}
		resampled, err := resampleBilinear(band, ref.grid, a.projector)
		if err != nil {
			var rerr *ReprojectionError
			if errors.As(err, &rerr) {
				return nil, err
			}
			return nil, &RasterReadError{Band: id, Path: paths[id], Err: err}
		}
		aligned.Bands[id] = resampled
	}
	return aligned, nil
}

func (a *Aligner) clipBand(id BandID, path string, area *aoi.AOI) (*clippedBand, error) {
	ds, err := a.opener.Open(path)
	if err != nil {
		return nil, &RasterReadError{Band: id, Path: path, Err: err}
	}
	defer ds.Close()

	crs := ds.Grid().CRS
	local, err := area.Reproject(a.projector, crs)
	if err != nil {
		return nil, &ReprojectionError{From: area.CRS, To: crs, Err: err}
	}
	return clip(ds, local, id, path)
}
