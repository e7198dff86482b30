package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/ui/components"
	"github.com/may1350/vibelens/internal/ui/styles"
)

// collapsedModelLimit caps how many quota bars a collapsed card shows.
const collapsedModelLimit = 3

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderAccountList())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("VibeLens")
	subtitle := styles.HelpStyle.Render("Antigravity quota telemetry")

	if snap := m.state.GetSnapshot(); snap != nil && snap.Degraded {
		subtitle = styles.WarningTextStyle.Render("Language server unreachable, showing last known data")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderAccountList renders one card per tracked account.
func (m *Model) renderAccountList() string {
	accounts := m.state.GetAccounts()

	cardWidth := max(m.width-6, 40)

	if len(accounts) == 0 {
		var rows []string
		emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows, fmt.Sprintf("  %s %s", emptyIcon, styles.HelpStyle.Render("No accounts yet")))
		rows = append(rows, "")
		rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Accounts appear after the first sync, or press e to set your email"))

		return styles.CardStyle.Width(cardWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	selected := m.state.GetSelectedAccountIndex()

	var cards []string
	for i, acc := range accounts {
		cards = append(cards, m.renderAccountCard(acc, i == selected, cardWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m *Model) renderAccountCard(acc models.Account, selected bool, width int) string {
	var lines []string

	lines = append(lines, m.renderAccountHeader(acc, selected))
	lines = append(lines, "")

	contentWidth := max(width-8, 30)

	if len(acc.Models) == 0 {
		lines = append(lines, components.SimpleQuotaBarLoading(acc.Label, contentWidth, m.animationFrame))
	} else {
		lines = append(lines, m.renderModelQuotas(acc, contentWidth)...)
	}

	if m.state.IsExpanded(acc.ID) {
		lines = append(lines, "")
		lines = append(lines, m.renderExpandedDetails(acc, contentWidth)...)
	}

	cardStyle := styles.CardStyle
	if selected {
		cardStyle = styles.SelectedCardStyle
	}

	return cardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (m *Model) renderAccountHeader(acc models.Account, selected bool) string {
	selectionPrefix := "  "
	if selected {
		selectionPrefix = styles.FocusedStyle.Render("▸ ")
	}

	email := acc.Email
	if len(email) > 35 {
		email = email[:32] + "..."
	}

	syncStyle := styles.GetSyncStyle(acc.LastSync)
	freshness := models.FormatLastSync(acc.LastSyncTimestamp, m.now())

	return fmt.Sprintf("%s%s %s %s %s",
		selectionPrefix,
		styles.CardTitleStyle.Render(acc.Label),
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(email),
		syncStyle.Render(acc.LastSync),
		styles.HelpStyle.Render(freshness),
	)
}

func (m *Model) renderModelQuotas(acc models.Account, width int) []string {
	now := m.now()
	expanded := m.state.IsExpanded(acc.ID)

	quotas := acc.Models
	hidden := 0
	if !expanded && len(quotas) > collapsedModelLimit {
		hidden = len(quotas) - collapsedModelLimit
		quotas = quotas[:collapsedModelLimit]
	}

	var lines []string
	for _, q := range quotas {
		lines = append(lines, "  "+components.ModelQuotaBar(q, now, width))
	}

	if hidden > 0 {
		lines = append(lines, styles.HelpStyle.Render(
			fmt.Sprintf("  … %d more, press enter to expand", hidden),
		))
	}

	return lines
}

func (m *Model) renderExpandedDetails(acc models.Account, width int) []string {
	var lines []string

	heatmapWidth := min(width-4, models.HistoryLength)
	heatmap := components.RenderUsageHeatmap(acc.History, heatmapWidth)
	if heatmap != "" {
		label := styles.SubTitleStyle.Render("Daily Usage")
		lines = append(lines, "  "+label)
		lines = append(lines, "  "+heatmap)
		lines = append(lines, "  "+components.RenderHeatmapLegend())
	}

	if acc.SyncKey != "" {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("  %s %s",
			styles.HelpStyle.Render("Sync key:"),
			lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(acc.SyncKey),
		))
	}

	usedToday := 0
	if len(acc.History) > 0 {
		usedToday = acc.History[len(acc.History)-1]
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  %s %s",
		styles.HelpStyle.Render("Credits used today:"),
		styles.InfoTextStyle.Render(formatCredits(usedToday)),
	))

	return lines
}

func formatCredits(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
