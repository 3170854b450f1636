package load

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/forest-guardian/eo-etl/internal/sentinel"
	"github.com/forest-guardian/eo-etl/internal/temperature"
)

type TemperatureRow struct {
	Metric string  `csv:"Metric"`
	Value  float64 `csv:"Value"`
}

type SummaryRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
	Unit   string `csv:"unit"`
}

// WriteTemperature writes temperature_summary_<ts>.csv.
func (l *Loader) WriteTemperature(stats *temperature.Stats, ts string) (string, error) {
	var rows []TemperatureRow
	for _, m := range stats.Metrics() {
		rows = append(rows, TemperatureRow{Metric: m.Name, Value: m.Value})
	}
	path := filepath.Join(l.dir, fmt.Sprintf("temperature_summary_%s.csv", ts))
	if err := writeCSV(path, &rows); err != nil {
		return "", err
	}
	l.log.Info("temperature summary saved", zap.String("path", path))
	return path, nil
}

// WriteSummary writes etl_summary_<ts>.csv with index means and standard
// deviations (NaN ignored) and the temperature metrics.
func (l *Loader) WriteSummary(indexes *sentinel.Indexes, stats *temperature.Stats, ts string) (string, error) {
	rows := SummaryRows(indexes, stats)
	path := filepath.Join(l.dir, fmt.Sprintf("etl_summary_%s.csv", ts))
	if err := writeCSV(path, &rows); err != nil {
		return "", err
	}
	l.log.Info("summary saved", zap.String("path", path), zap.Int("rows", len(rows)))
	return path, nil
}

// SummaryRows builds the rows of the run summary. Either argument may be nil.
func SummaryRows(indexes *sentinel.Indexes, stats *temperature.Stats) []SummaryRow {
	rows := []SummaryRow{}
	if indexes != nil {
		rows = append(rows, SummaryRow{Metric: "--- SENTINEL-2 INDICES ---"})
		for _, name := range sentinel.IndexNames {
			values, ok := indexes.Values[name]
			if !ok {
				continue
			}
			mean, std := nanMeanStd(values.RawMatrix().Data)
			rows = append(rows,
				SummaryRow{Metric: string(name) + "_mean", Value: fmt.Sprintf("%.4f", mean), Unit: "index"},
				SummaryRow{Metric: string(name) + "_std", Value: fmt.Sprintf("%.4f", std), Unit: "index"},
			)
		}
	}
	if stats != nil {
		rows = append(rows, SummaryRow{Metric: "--- TEMPERATURE STATS ---"})
		for _, m := range stats.Metrics() {
			rows = append(rows, SummaryRow{Metric: m.Name, Value: fmt.Sprintf("%.2f", m.Value), Unit: "°C"})
		}
	}
	return rows
}

func nanMeanStd(values []float64) (float64, float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, variance := stat.PopMeanVariance(finite, nil)
	return mean, math.Sqrt(variance)
}

func writeCSV(path string, rows interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(rows, file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
