package load

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/forest-guardian/eo-etl/internal/sentinel"
)

// WritePreviews renders <name>_index.png quicklooks: red at -1, yellow at 0,
// green at 1. NaN pixels stay transparent.
func (l *Loader) WritePreviews(indexes *sentinel.Indexes) ([]string, error) {
	var files []string
	for _, name := range sentinel.IndexNames {
		values, ok := indexes.Values[name]
		if !ok {
			continue
		}
		rows, cols := values.Dims()
		dc := gg.NewContext(cols, rows)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				v := values.At(y, x)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				r, g, b := ramp(v)
				dc.SetRGB(r, g, b)
				dc.SetPixel(x, y)
			}
		}
		path := filepath.Join(l.dir, strings.ToLower(string(name))+"_index.png")
		if err := dc.SavePNG(path); err != nil {
			return files, fmt.Errorf("failed to save preview %s: %w", path, err)
		}
		files = append(files, path)
		l.log.Debug("preview saved", zap.String("path", path))
	}
	return files, nil
}

func ramp(v float64) (float64, float64, float64) {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return 1, 1 + v, 0
	}
	return 1 - v, 1, 0
}
