package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sma-forecast/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/floats"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1).
		MarginTop(1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
		Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)

// TableSink prints a per-series summary and the first MaxRows points of each
// series side by side. MaxRows <= 0 prints every point.
type TableSink struct {
	Out     io.Writer
	MaxRows int
}

func (s *TableSink) Render(_ context.Context, chart model.Chart) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(chart.Title))
	b.WriteString("\n")

	summary := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("series", "points", "min "+chart.YLabel, "max "+chart.YLabel, "mean").
		StyleFunc(styleCell)
	for _, series := range chart.Series {
		summary.Row(summarize(series)...)
	}
	b.WriteString(summary.Render())
	b.WriteString("\n")

	if rows := s.sampleRows(chart); len(rows) > 0 {
		headers := []string{chart.XLabel}
		for _, series := range chart.Series {
			headers = append(headers, series.Name)
		}
		sample := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(mutedStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(styleCell)
		b.WriteString(sample.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(s.Out, b.String())
	return err
}

func styleCell(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func summarize(series model.Series) []string {
	if len(series.Points) == 0 {
		return []string{series.Name, "0", "-", "-", "-"}
	}
	ys := make([]float64, len(series.Points))
	for i, p := range series.Points {
		ys[i] = p.Y
	}
	return []string{
		series.Name,
		fmt.Sprint(len(ys)),
		fmt.Sprintf("%.2f", floats.Min(ys)),
		fmt.Sprintf("%.2f", floats.Max(ys)),
		fmt.Sprintf("%.2f", floats.Sum(ys)/float64(len(ys))),
	}
}

// sampleRows lines series up by point index. The X column comes from the
// first series that has a point at that index.
func (s *TableSink) sampleRows(chart model.Chart) [][]string {
	n := 0
	for _, series := range chart.Series {
		if len(series.Points) > n {
			n = len(series.Points)
		}
	}
	if s.MaxRows > 0 && n > s.MaxRows {
		n = s.MaxRows
	}

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := []string{""}
		for _, series := range chart.Series {
			if i >= len(series.Points) {
				row = append(row, "")
				continue
			}
			p := series.Points[i]
			if row[0] == "" {
				row[0] = fmt.Sprintf("%g", p.X)
				if p.Label != "" {
					row[0] += " (" + p.Label + ")"
				}
			}
			row = append(row, fmt.Sprintf("%.2f", p.Y))
		}
		rows = append(rows, row)
	}
	return rows
}
