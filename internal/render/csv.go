package render

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"sma-forecast/internal/model"
)

// CSVSink writes one row per point to {Dir}/{title}.csv.
type CSVSink struct {
	Dir string
}

func (s *CSVSink) Render(_ context.Context, chart model.Chart) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return WriteChartCSV(filepath.Join(s.Dir, slug(chart.Title)+".csv"), chart)
}

func WriteChartCSV(path string, chart model.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"series",
		"index",
		"x",
		"y",
		"label",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range chart.Series {
		for i, p := range s.Points {
			row := []string{
				s.Name,
				strconv.Itoa(i),
				fmtFloat(p.X),
				fmtFloat(p.Y),
				p.Label,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
