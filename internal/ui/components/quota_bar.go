// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/ui/styles"
)

// RenderGradientBar renders the bar part with gradient colors from red to
// green as percent rises.
func RenderGradientBar(percent int, width int) string {
	if width < 1 {
		return ""
	}

	filled := width * percent / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#ff6b6b", "#51cf66", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// SimpleQuotaBar renders an ASCII progress bar with label and percentage.
func SimpleQuotaBar(percent int, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4

	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(percent, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetQuotaStyle(percent, false).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d%%", percent))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

// ModelQuotaBar renders a single model's remaining quota: name, gradient
// bar, percentage, and the reset countdown recomputed at render time.
func ModelQuotaBar(q models.ModelQuota, now time.Time, width int) string {
	const nameWidth = 22
	const percentWidth = 9
	const countdownWidth = 14

	barWidth := width - nameWidth - percentWidth - countdownWidth - 6
	if barWidth < 10 {
		barWidth = 10
	}

	nameStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(nameWidth).
		Render(truncateName(q.Name, nameWidth))

	var statusStr string
	var bar string
	if q.IsFull() {
		bar = lipgloss.NewStyle().
			Foreground(styles.Error).
			Render(strings.Repeat("░", barWidth))
		statusStr = styles.QuotaFullStyle.
			Width(percentWidth).
			Align(lipgloss.Right).
			Render("FULL")
	} else {
		bar = RenderGradientBar(q.Percentage, barWidth)
		statusStr = styles.GetQuotaStyle(q.Percentage, false).
			Width(percentWidth).
			Align(lipgloss.Right).
			Render(fmt.Sprintf("%d%%", q.Percentage))
	}

	countdown := ""
	if q.ResetAt > 0 {
		countdown = models.FormatCountdown(q.ResetAt, now)
	}
	countdownStr := styles.CountdownStyle.
		Width(countdownWidth).
		Align(lipgloss.Right).
		Render(countdown)

	return fmt.Sprintf("%s [%s] %s %s", nameStr, bar, statusStr, countdownStr)
}

func truncateName(name string, width int) string {
	if len(name) <= width {
		return name
	}
	if width <= 1 {
		return name[:width]
	}
	return name[:width-1] + "…"
}

// SimpleQuotaBarLoading renders a shimmering placeholder bar while the
// first telemetry fetch is in flight.
func SimpleQuotaBarLoading(label string, width int, frame int) string {
	const (
		indentWidth  = 4
		percentWidth = 6
		rightPadding = 14
	)

	barWidth := width - indentWidth - percentWidth - rightPadding - 4
	if barWidth < 10 {
		barWidth = 10
	}

	accentColor := styles.Secondary
	if strings.Contains(strings.ToLower(label), "gemini") {
		accentColor = styles.Info
	}

	cycle := 120

	t := float64(frame%cycle) / float64(cycle)
	var p float64
	if t < 0.5 {
		p = t * 2
	} else {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(barWidth))
	var barChars []string

	for i := 0; i < barWidth; i++ {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style

		if dist < 3 {
			char = "▓"
			style = lipgloss.NewStyle().Foreground(accentColor)
		} else if dist < 5 {
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		} else {
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}

		barChars = append(barChars, style.Render(char))
	}

	bar := strings.Join(barChars, "")

	indent := "    "

	dots := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	dot := dots[(frame/2)%len(dots)]

	loadingStr := lipgloss.NewStyle().
		Width(percentWidth).
		Align(lipgloss.Right).
		Foreground(accentColor).
		Render(dot)

	return lipgloss.JoinHorizontal(lipgloss.Left,
		indent,
		bar,
		" ",
		loadingStr,
	)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
