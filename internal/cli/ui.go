package cli

import (
	"fmt"
	"strings"

	"sma-forecast/internal/config"

	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	kindStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6"))

	detailStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)
)

func renderVariants(variants []config.VariantConfig) string {
	var b strings.Builder
	for _, v := range variants {
		b.WriteString(nameStyle.Render(v.Name))
		b.WriteString(" ")
		b.WriteString(kindStyle.Render("[" + v.Kind + "]"))
		b.WriteString(" ")
		b.WriteString(detailStyle.Render(describe(v)))
		b.WriteString("\n")
	}
	return b.String()
}

func describe(v config.VariantConfig) string {
	parts := []string{fmt.Sprintf("window=%d", v.WindowSize)}
	if v.Kind == "scatter" {
		return strings.Join(parts, " ")
	}
	units := make([]string, len(v.Hidden))
	for i, l := range v.Hidden {
		units[i] = fmt.Sprintf("%d/%s", l.Units, l.Activation)
	}
	parts = append(parts,
		"hidden="+strings.Join(units, ","),
		fmt.Sprintf("epochs=%d", v.Epochs),
		fmt.Sprintf("batch=%d", v.BatchSize),
	)
	if v.LearningRate > 0 {
		parts = append(parts, fmt.Sprintf("lr=%g", v.LearningRate))
	}
	if v.Kind == "window" {
		parts = append(parts, fmt.Sprintf("train=%g", v.TrainFraction))
	}
	return strings.Join(parts, " ")
}
