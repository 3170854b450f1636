package temperature

import (
	"context"

	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/raster"
)

// Transformer summarises a downloaded ERA5 file, optionally restricted to
// the AOI bounding box.
type Transformer struct {
	projector raster.Projector
	subsetAOI bool
	read      func(path string) (*Field, error)
	log       *zap.Logger
}

func NewTransformer(projector raster.Projector, subsetAOI bool, log *zap.Logger) *Transformer {
	return &Transformer{projector: projector, subsetAOI: subsetAOI, read: ReadField, log: log}
}

func (t *Transformer) Transform(ctx context.Context, path string, area *aoi.AOI) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	field, err := t.read(path)
	if err != nil {
		return nil, err
	}
	t.log.Info("temperature variable resolved",
		zap.String("variable", field.Name),
		zap.Strings("dims", field.Dims),
		zap.Int("samples", len(field.Values)))

	samples := field.Values
	if t.subsetAOI && area != nil {
		samples = t.subset(field, area)
	}

	stats, err := Summarize(samples)
	if err != nil {
		return nil, err
	}
	t.log.Info("temperature summarised",
		zap.Float64("mean_temp", stats.Mean),
		zap.Float64("min_temp", stats.Min),
		zap.Float64("max_temp", stats.Max),
		zap.Float64("std_temp", stats.Std),
		zap.Bool("from_kelvin", stats.FromKelvin))
	return stats, nil
}

func (t *Transformer) subset(field *Field, area *aoi.AOI) []float64 {
	bbox, err := area.BBox(t.projector)
	if err != nil {
		t.log.Warn("cannot compute AOI bounding box, using whole grid", zap.Error(err))
		return field.Values
	}
	sub, ok := field.Subset(bbox)
	switch {
	case !ok:
		t.log.Warn("grid has no latitude/longitude coordinates, using whole grid")
		return field.Values
	case len(sub) == 0:
		t.log.Warn("no grid cell centre inside the AOI, using whole grid", zap.Float64s("bbox", bbox[:]))
		return field.Values
	}
	t.log.Debug("grid subset to AOI", zap.Int("samples", len(sub)), zap.Float64s("bbox", bbox[:]))
	return sub
}
