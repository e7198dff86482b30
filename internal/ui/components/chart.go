package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)

	return graph
}

// RenderMultiLineChart creates a multi-series chart, one series per account.
func RenderMultiLineChart(series [][]float64, width, height int, caption string) string {
	nonEmpty := false
	for _, s := range series {
		if len(s) > 0 {
			nonEmpty = true
			break
		}
	}
	if !nonEmpty {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	// Normalize lengths so every series spans the same window.
	maxLen := 0
	for _, s := range series {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	normalized := make([][]float64, len(series))
	for i, s := range series {
		padded := make([]float64, maxLen)
		copy(padded, s)
		normalized[i] = padded
	}

	seriesColors := []asciigraph.AnsiColor{
		asciigraph.Red, asciigraph.Blue, asciigraph.Green,
		asciigraph.Yellow, asciigraph.Magenta, asciigraph.Cyan,
	}
	colors := make([]asciigraph.AnsiColor, len(normalized))
	for i := range normalized {
		colors[i] = seriesColors[i%len(seriesColors)]
	}

	graph := asciigraph.PlotMany(normalized,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)

	return graph
}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'·', '░', '▒', '▓', '█'}

// RenderUsageHeatmap renders an account's daily usage history as a colored
// strip, most recent days on the right. At most width cells are shown,
// taken from the tail of the history.
func RenderUsageHeatmap(history []int, width int) string {
	if len(history) == 0 || width < 1 {
		return ""
	}

	cells := history
	if len(cells) > width {
		cells = cells[len(cells)-width:]
	}

	var b strings.Builder
	for _, v := range cells {
		level := models.IntensityLevel(v)
		if level >= len(HeatmapBlocks) {
			level = len(HeatmapBlocks) - 1
		}
		b.WriteString(styles.HeatmapStyle(level).Render(string(HeatmapBlocks[level])))
	}

	return b.String()
}

// RenderHeatmapLegend renders the intensity scale for the usage heatmap.
func RenderHeatmapLegend() string {
	var parts []string
	parts = append(parts, styles.HelpStyle.Render("less"))
	for level := range HeatmapBlocks {
		parts = append(parts, styles.HeatmapStyle(level).Render(string(HeatmapBlocks[level])))
	}
	parts = append(parts, styles.HelpStyle.Render("more"))
	return strings.Join(parts, " ")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	// Find max value
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		idx := int(float64(i) * step)
		val := values[idx]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		if normalized >= len(sparkChars) {
			normalized = len(sparkChars) - 1
		}
		if normalized < 0 {
			normalized = 0
		}
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
