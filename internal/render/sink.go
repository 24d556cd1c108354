// Package render hands finished charts to output sinks.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sma-forecast/internal/model"
)

// Sink consumes one chart per pipeline run.
type Sink interface {
	Render(ctx context.Context, chart model.Chart) error
}

// MultiSink renders to every sink in order and joins their errors.
type MultiSink []Sink

func (m MultiSink) Render(ctx context.Context, chart model.Chart) error {
	var errs []error
	for _, s := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Render(ctx, chart); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds a sink for the given formats: "table" writes to out, "csv"
// and "json" write files under dir.
func New(formats []string, dir string, out io.Writer) (Sink, error) {
	sinks := make(MultiSink, 0, len(formats))
	for _, f := range formats {
		switch strings.ToLower(f) {
		case "table":
			sinks = append(sinks, &TableSink{Out: out, MaxRows: 10})
		case "csv":
			sinks = append(sinks, &CSVSink{Dir: dir})
		case "json":
			sinks = append(sinks, &JSONSink{Dir: dir})
		default:
			return nil, fmt.Errorf("unknown render format %q", f)
		}
	}
	return sinks, nil
}

// slug makes a chart title usable as a file name.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "chart"
	}
	return s
}
