package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sma-forecast/internal/model"
)

// JSONSink writes the chart document to {Dir}/{title}.json.
type JSONSink struct {
	Dir string
}

func (s *JSONSink) Render(_ context.Context, chart model.Chart) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	raw, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chart: %w", err)
	}
	path := filepath.Join(s.Dir, slug(chart.Title)+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
