package raster

import (
	"fmt"
)

// InMemory is a Dataset backed by a row-major slice.
type InMemory struct {
	grid      Grid
	data      []float64
	nodata    float64
	hasNoData bool
}

func NewInMemory(grid Grid, data []float64) (*InMemory, error) {
	if len(data) != grid.Width*grid.Height {
		return nil, fmt.Errorf("data has %d samples, grid is %dx%d", len(data), grid.Width, grid.Height)
	}
	return &InMemory{grid: grid, data: data}, nil
}

// WithNoData declares the no-data value of the dataset.
func (m *InMemory) WithNoData(v float64) *InMemory {
	m.nodata, m.hasNoData = v, true
	return m
}

func (m *InMemory) Grid() Grid { return m.grid }

func (m *InMemory) NoData() (float64, bool) { return m.nodata, m.hasNoData }

func (m *InMemory) ReadWindow(w Window) ([]float64, error) {
	if w.Col < 0 || w.Row < 0 || w.Width <= 0 || w.Height <= 0 ||
		w.Col+w.Width > m.grid.Width || w.Row+w.Height > m.grid.Height {
		return nil, fmt.Errorf("window %+v outside %dx%d raster", w, m.grid.Width, m.grid.Height)
	}
	out := make([]float64, 0, w.Width*w.Height)
	for row := w.Row; row < w.Row+w.Height; row++ {
		start := row*m.grid.Width + w.Col
		out = append(out, m.data[start:start+w.Width]...)
	}
	return out, nil
}

func (m *InMemory) Close() error { return nil }

// MemoryOpener serves InMemory datasets by path.
type MemoryOpener map[string]Dataset

func (o MemoryOpener) Open(path string) (Dataset, error) {
	ds, ok := o[path]
	if !ok {
		return nil, fmt.Errorf("no such raster: %s", path)
	}
	return ds, nil
}
