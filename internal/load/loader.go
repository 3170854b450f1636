package load

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/forest-guardian/eo-etl/internal/raster"
	"github.com/forest-guardian/eo-etl/internal/sentinel"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

const timestampLayout = "20060102_150405"

// RasterWriter persists a single float32 band.
type RasterWriter interface {
	WriteFloat32(path string, meta raster.Metadata, data []float32) error
}

// Loader writes transform results into the processed data directory.
type Loader struct {
	dir      string
	writer   RasterWriter
	previews bool
	workers  int
	now      func() time.Time
	log      *zap.Logger
}

func NewLoader(dir string, writer RasterWriter, previews bool, log *zap.Logger) *Loader {
	return &Loader{dir: dir, writer: writer, previews: previews, workers: 4, now: time.Now, log: log}
}

// Result lists the files written by Load.
type Result struct {
	Indexes     []string
	Previews    []string
	Temperature string
	Summary     string
}

// Load writes whatever products are present. Either argument may be nil.
func (l *Loader) Load(ctx context.Context, indexes *sentinel.Indexes, stats *temperature.Stats) (*Result, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", l.dir, err)
	}
	ts := l.now().Format(timestampLayout)
	res := &Result{}
	var errs []error

	if indexes != nil {
		files, err := l.WriteIndexes(ctx, indexes)
		res.Indexes = files
		errs = append(errs, err)
		if l.previews {
			files, err := l.WritePreviews(indexes)
			res.Previews = files
			errs = append(errs, err)
		}
	} else {
		l.log.Warn("no indices to save")
	}

	if stats != nil {
		path, err := l.WriteTemperature(stats, ts)
		res.Temperature = path
		errs = append(errs, err)
	} else {
		l.log.Warn("no temperature stats to save")
	}

	path, err := l.WriteSummary(indexes, stats, ts)
	res.Summary = path
	errs = append(errs, err)

	return res, errors.Join(errs...)
}

// WriteIndexes writes <name>_index.tif for every index in parallel.
func (l *Loader) WriteIndexes(ctx context.Context, indexes *sentinel.Indexes) ([]string, error) {
	meta := indexes.Metadata()
	var (
		mu    sync.Mutex
		files []string
		errs  []error
	)

	wp := workerpool.New(l.workers)
	for _, name := range sentinel.IndexNames {
		values, ok := indexes.Values[name]
		if !ok {
			continue
		}
		path := filepath.Join(l.dir, strings.ToLower(string(name))+"_index.tif")
		wp.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			err := l.writer.WriteFloat32(path, meta, toFloat32(values))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			files = append(files, path)
			l.log.Info("index saved", zap.String("index", string(name)), zap.String("path", path))
		})
	}
	wp.StopWait()

	if err := ctx.Err(); err != nil {
		return files, err
	}
	return files, errors.Join(errs...)
}

func toFloat32(m *mat.Dense) []float32 {
	r, c := m.Dims()
	out := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			if math.IsInf(v, 0) {
				v = math.NaN()
			}
			out = append(out, float32(v))
		}
	}
	return out
}
