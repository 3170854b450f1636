package sentinel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/aoi"
)

// Transformer turns an extracted Sentinel-2 product folder into indices.
type Transformer struct {
	aligner *Aligner
	log     *zap.Logger
}

func NewTransformer(aligner *Aligner, log *zap.Logger) *Transformer {
	return &Transformer{aligner: aligner, log: log}
}

func (t *Transformer) Transform(ctx context.Context, folder string, area *aoi.AOI) (*Indexes, error) {
	start := time.Now()
	paths, err := DiscoverBands(folder)
	if err != nil {
		return nil, err
	}
	for id, path := range paths {
		t.log.Debug("band found", zap.String("band", string(id)), zap.String("path", path))
	}

	aligned, err := t.aligner.Align(ctx, paths, area, ReferenceBand)
	if err != nil {
		return nil, err
	}
	t.log.Info("bands aligned",
		zap.Int("bands", len(aligned.Bands)),
		zap.Int("width", aligned.Grid.Width),
		zap.Int("height", aligned.Grid.Height))

	indexes, err := ComputeIndexes(aligned)
	if err != nil {
		return nil, err
	}
	t.log.Info("indices computed",
		zap.Int("count", len(indexes.Values)),
		zap.Duration("elapsed", time.Since(start)))
	return indexes, nil
}
