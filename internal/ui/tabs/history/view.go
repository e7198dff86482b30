package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/ui/components"
	"github.com/may1350/vibelens/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if !m.loaded || len(m.points) == 0 {
		return m.renderEmpty()
	}

	var sections []string

	sections = append(sections,
		m.renderHeader(),
		m.renderUsageChart(),
		m.renderHeatmapCard(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading usage history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No usage recorded yet."),
		styles.HelpStyle.Render("Data appears after the first telemetry sync."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	email := m.email
	if len(email) > 40 {
		email = email[:37] + "..."
	}

	title := styles.TitleStyle.Render("History: " + email)

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(m.rangeLabel())

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if len(m.points) > 0 {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d days)",
			m.points[0].Day,
			m.points[len(m.points)-1].Day,
			len(m.points),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderUsageChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	rows = append(rows, styles.CardTitleStyle.Render("Daily Prompt Credits"), "")

	data := make([]float64, len(m.points))
	for i, p := range m.points {
		data[i] = float64(p.DailyUsage)
	}

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 8

	chart := components.RenderLineChart(data, chartWidth, chartHeight,
		fmt.Sprintf("Credits consumed per day (last %d days)", len(m.points)))

	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	total, peak, peakDay := m.summary()
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  Total: %s   Peak: %s on %s",
		styles.InfoTextStyle.Render(fmt.Sprintf("%d", total)),
		lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(fmt.Sprintf("%d", peak)),
		peakDay,
	))
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderHeatmapCard shows the reconciled per-account history strip, which
// can reach further back than the local database.
func (m *Model) renderHeatmapCard() string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Usage Heatmap"), "")

	acc, ok := m.state.GetSelectedAccount()
	if !ok {
		rows = append(rows, styles.HelpStyle.Render("  No account selected"))
	} else {
		heatmapWidth := min(cardWidth-8, models.HistoryLength)
		rows = append(rows, "  "+components.RenderUsageHeatmap(acc.History, heatmapWidth))
		rows = append(rows, "")
		rows = append(rows, "  "+components.RenderHeatmapLegend())
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
