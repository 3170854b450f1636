package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forest-guardian/eo-etl/internal/aoi"
	"github.com/forest-guardian/eo-etl/internal/auth"
	"github.com/forest-guardian/eo-etl/internal/load"
	"github.com/forest-guardian/eo-etl/internal/raster"
	"github.com/forest-guardian/eo-etl/internal/sentinel"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

var ErrAllProductsFailed = errors.New("no product could be produced")

// Source downloads one product over bbox for the configured period and
// returns its local path.
type Source interface {
	Fetch(ctx context.Context, token string, bbox [4]float64, start, end time.Time) (string, error)
}

type IndexTransformer interface {
	Transform(ctx context.Context, folder string, area *aoi.AOI) (*sentinel.Indexes, error)
}

type TemperatureTransformer interface {
	Transform(ctx context.Context, path string, area *aoi.AOI) (*temperature.Stats, error)
}

type ResultLoader interface {
	Load(ctx context.Context, indexes *sentinel.Indexes, stats *temperature.Stats) (*load.Result, error)
}

type Notifier interface {
	Success(ctx context.Context, message string) error
	Failure(ctx context.Context, message string) error
}

// Deps wires the pipeline stages.
type Deps struct {
	CDSE        auth.Provider
	WEkEO       auth.Provider
	Area        func() (*aoi.AOI, error)
	Projector   raster.Projector
	Scenes      Source
	Climate     Source
	Indices     IndexTransformer
	Temperature TemperatureTransformer
	Loader      ResultLoader
	Notifier    Notifier
	Start       time.Time
	End         time.Time
	Log         *zap.Logger
}

// Pipeline runs authenticate, extract, transform and load for the
// Sentinel-2 indices and the ERA5 temperature summary.
type Pipeline struct {
	d Deps
}

func New(d Deps) *Pipeline {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Pipeline{d: d}
}

// Outcome is the result of one product branch.
type Outcome struct {
	Product   string
	Succeeded bool
	Err       error
}

func (o Outcome) String() string {
	if o.Succeeded {
		return o.Product + ": SUCCESS"
	}
	return fmt.Sprintf("%s: FAILED (%v)", o.Product, o.Err)
}

type Report struct {
	Indices     Outcome
	Temperature Outcome
	Files       *load.Result
	Elapsed     time.Duration
}

func (r *Report) String() string {
	return strings.Join([]string{r.Indices.String(), r.Temperature.String()}, "\n")
}

// Run executes both branches concurrently. A failing branch does not stop
// the other one; the error is ErrAllProductsFailed only when neither
// product was produced.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		Indices:     Outcome{Product: "Sentinel-2 indices"},
		Temperature: Outcome{Product: "Temperature"},
	}

	area, err := p.d.Area()
	if err != nil {
		return nil, p.fail(ctx, fmt.Errorf("failed to load area of interest: %w", err))
	}
	bbox, err := area.BBox(p.d.Projector)
	if err != nil {
		return nil, p.fail(ctx, fmt.Errorf("failed to compute area bounding box: %w", err))
	}
	p.d.Log.Info("area of interest loaded", zap.Float64s("bbox", bbox[:]))

	var (
		indexes *sentinel.Indexes
		stats   *temperature.Stats
		g       errgroup.Group
	)
	g.Go(func() error {
		indexes, report.Indices.Err = p.runIndices(ctx, area, bbox)
		report.Indices.Succeeded = report.Indices.Err == nil
		return nil
	})
	g.Go(func() error {
		stats, report.Temperature.Err = p.runTemperature(ctx, area, bbox)
		report.Temperature.Succeeded = report.Temperature.Err == nil
		return nil
	})
	_ = g.Wait()

	for _, o := range []Outcome{report.Indices, report.Temperature} {
		if o.Err != nil {
			p.d.Log.Warn("product skipped", zap.String("product", o.Product), zap.Error(o.Err))
		}
	}

	if indexes == nil && stats == nil {
		report.Elapsed = time.Since(start)
		return report, p.fail(ctx, fmt.Errorf("%w\n%s", ErrAllProductsFailed, report))
	}

	files, err := p.d.Loader.Load(ctx, indexes, stats)
	report.Files = files
	report.Elapsed = time.Since(start)
	if err != nil {
		return report, p.fail(ctx, fmt.Errorf("failed to save results: %w", err))
	}

	p.d.Log.Info("pipeline completed",
		zap.Bool("indices", report.Indices.Succeeded),
		zap.Bool("temperature", report.Temperature.Succeeded),
		zap.Duration("elapsed", report.Elapsed))
	if p.d.Notifier != nil {
		if err := p.d.Notifier.Success(ctx, report.String()); err != nil {
			p.d.Log.Warn("failed to send notification", zap.Error(err))
		}
	}
	return report, nil
}

func (p *Pipeline) runIndices(ctx context.Context, area *aoi.AOI, bbox [4]float64) (*sentinel.Indexes, error) {
	token, err := p.d.CDSE.RequestToken(ctx)
	if err != nil {
		return nil, err
	}
	folder, err := p.d.Scenes.Fetch(ctx, token, bbox, p.d.Start, p.d.End)
	if err != nil {
		return nil, err
	}
	return p.d.Indices.Transform(ctx, folder, area)
}

func (p *Pipeline) runTemperature(ctx context.Context, area *aoi.AOI, bbox [4]float64) (*temperature.Stats, error) {
	token, err := p.d.WEkEO.RequestToken(ctx)
	if err != nil {
		return nil, err
	}
	path, err := p.d.Climate.Fetch(ctx, token, bbox, p.d.Start, p.d.End)
	if err != nil {
		return nil, err
	}
	return p.d.Temperature.Transform(ctx, path, area)
}

func (p *Pipeline) fail(ctx context.Context, err error) error {
	p.d.Log.Error("pipeline failed", zap.Error(err))
	if p.d.Notifier != nil {
		if nerr := p.d.Notifier.Failure(ctx, err.Error()); nerr != nil {
			p.d.Log.Warn("failed to send notification", zap.Error(nerr))
		}
	}
	return err
}
