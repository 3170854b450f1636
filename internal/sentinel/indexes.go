package sentinel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/raster"
)

// Epsilon keeps the normalised-difference denominators away from zero.
const Epsilon = 1e-6

type IndexName string

const (
	NDVI   IndexName = "NDVI"
	EVI    IndexName = "EVI"
	CHLORO IndexName = "CHLORO"
	SOILM  IndexName = "SOILM"
)

// IndexNames lists the computed indices in output order.
var IndexNames = []IndexName{NDVI, EVI, CHLORO, SOILM}

// Indexes holds the derived arrays on the reference grid.
type Indexes struct {
	Grid   raster.Grid
	Values map[IndexName]*mat.Dense
}

// Metadata is the persistence record shared by every index raster.
func (ix *Indexes) Metadata() raster.Metadata {
	return raster.SingleBandFloat32(ix.Grid)
}

// ComputeIndexes derives NDVI, EVI, CHLORO and SOILM pixel by pixel.
// Values are not clamped. EVI has no epsilon guard; a pixel whose EVI
// denominator is exactly zero yields NaN. Masked reference pixels are NaN
// in every index.
func ComputeIndexes(bands *AlignedBands) (*Indexes, error) {
	if missing := missingBands(bands.Bands, RequiredBands); len(missing) > 0 {
		return nil, &MissingBandError{Bands: missing}
	}
	rows, cols := bands.Grid.Height, bands.Grid.Width
	for _, id := range RequiredBands {
		r, c := bands.Bands[id].Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("band %s is %dx%d, reference grid is %dx%d", id, r, c, rows, cols)
		}
	}
	if bands.Valid != nil && len(bands.Valid) != rows*cols {
		return nil, fmt.Errorf("validity mask has %d pixels, reference grid has %d", len(bands.Valid), rows*cols)
	}

	blue, red := bands.Band(B2), bands.Band(B4)
	redEdge, nir, swir := bands.Band(B5), bands.Band(B8), bands.Band(B11)

	ndvi := mat.NewDense(rows, cols, nil)
	ndvi.Apply(func(i, j int, b4 float64) float64 {
		b8 := nir.At(i, j)
		return (b8 - b4) / (b8 + b4 + Epsilon)
	}, red)

	evi := mat.NewDense(rows, cols, nil)
	evi.Apply(func(i, j int, b4 float64) float64 {
		b8, b2 := nir.At(i, j), blue.At(i, j)
		return safeDivide(2.5*(b8-b4), b8+6*b4-7.5*b2+1)
	}, red)

	chloro := mat.NewDense(rows, cols, nil)
	chloro.Apply(func(i, j int, b4 float64) float64 {
		return redEdge.At(i, j)/(b4+Epsilon) - 1
	}, red)

	soilm := mat.NewDense(rows, cols, nil)
	soilm.Apply(func(i, j int, b11 float64) float64 {
		b8 := nir.At(i, j)
		return (b11 - b8) / (b11 + b8 + Epsilon)
	}, swir)

	values := map[IndexName]*mat.Dense{
		NDVI:   ndvi,
		EVI:    evi,
		CHLORO: chloro,
		SOILM:  soilm,
	}
	if bands.Valid != nil {
		nan := math.NaN()
		for i := range rows {
			for j := range cols {
				if !bands.Masked(i, j) {
					continue
				}
				for _, m := range values {
					m.Set(i, j, nan)
				}
			}
		}
	}
	return &Indexes{Grid: bands.Grid, Values: values}, nil
}

func safeDivide(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}
