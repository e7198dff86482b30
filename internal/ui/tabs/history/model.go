// Package history provides the history tab for viewing recorded usage.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/app"
	"github.com/may1350/vibelens/internal/db"
	"github.com/may1350/vibelens/internal/services"
)

// TimeRange selects how many days of usage the chart covers.
type TimeRange int

const (
	TimeRange30Days TimeRange = iota
	TimeRange90Days
	TimeRangeFull
)

// Days returns the window size in days.
func (t TimeRange) Days() int {
	switch t {
	case TimeRange90Days:
		return 90
	case TimeRangeFull:
		return 182
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	switch t {
	case TimeRange30Days:
		return TimeRange90Days
	case TimeRange90Days:
		return TimeRangeFull
	default:
		return TimeRange30Days
	}
}

// String returns a display label for the range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange90Days:
		return "90 days"
	case TimeRangeFull:
		return "6 months"
	default:
		return "30 days"
	}
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Reload      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload chart"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when usage data is loaded.
type historyLoadedMsg struct {
	email  string
	points []db.UsagePoint
}

// historyErrorMsg is sent when there's an error loading usage data.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.AppState
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   TimeRange
	email       string
	points      []db.UsagePoint
	loaded      bool
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
func New(state *app.AppState, svc *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  svc,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: TimeRange30Days,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.loadHistoryCmd()
}

// selectedEmail resolves which account's usage to chart.
func (m *Model) selectedEmail() string {
	if acc, ok := m.state.GetSelectedAccount(); ok {
		return acc.Email
	}
	return ""
}

// loadHistoryCmd creates a command to load usage data from the database.
func (m *Model) loadHistoryCmd() tea.Cmd {
	email := m.selectedEmail()
	days := m.timeRange.Days()

	return func() tea.Msg {
		if m.services == nil || m.services.Database() == nil {
			return historyErrorMsg{err: "Services not initialized"}
		}
		if email == "" {
			return historyErrorMsg{err: "No account selected"}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		points, err := m.services.Database().DailyUsageSeries(ctx, email, days)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{email: email, points: points}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.email = msg.email
		m.points = msg.points
		m.loaded = true
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err

	case app.PollCompletedMsg:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory {
			return m.reloadIfStale()
		}

	case app.SelectedAccountChangedMsg:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

// reloadIfStale reloads when the selection moved to another account.
func (m *Model) reloadIfStale() (app.Tab, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if !m.loaded || m.selectedEmail() != m.email {
		m.loading = true
		return m, m.loadHistoryCmd()
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}

// summary aggregates the loaded window for display.
func (m *Model) summary() (total, peak int, peakDay string) {
	for _, p := range m.points {
		total += p.DailyUsage
		if p.DailyUsage > peak {
			peak = p.DailyUsage
			peakDay = p.Day
		}
	}
	return total, peak, peakDay
}

func (m *Model) rangeLabel() string {
	return fmt.Sprintf("[t] %s", m.timeRange.String())
}
