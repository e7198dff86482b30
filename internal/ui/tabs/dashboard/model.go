// Package dashboard provides the account overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/app"
	"github.com/may1350/vibelens/internal/ui/components"
)

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	NextAccount  key.Binding
	PrevAccount  key.Binding
	FirstAccount key.Binding
	LastAccount  key.Binding
	Expand       key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		NextAccount: key.NewBinding(
			key.WithKeys("n", "j", "down"),
			key.WithHelp("j/n", "next account"),
		),
		PrevAccount: key.NewBinding(
			key.WithKeys("p", "k", "up"),
			key.WithHelp("k/p", "prev account"),
		),
		FirstAccount: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first account"),
		),
		LastAccount: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last account"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "expand card"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.AppState
	spinner        components.LoadingSpinner
	keys           keyMap
	viewport       viewport.Model
	width          int
	height         int
	animationFrame int
	now            func() time.Time
}

// New creates a new dashboard model.
func New(state *app.AppState) *Model {
	return &Model{
		state:    state,
		spinner:  components.NewSpinner("Looking for a language server..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		now:      time.Now,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick() tea.Cmd {
	m.animationFrame++
	if m.state.IsInitialLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	accountCount := m.state.GetAccountCount()
	selected := m.state.GetSelectedAccountIndex()

	switch {
	case key.Matches(msg, m.keys.NextAccount):
		if accountCount > 0 {
			return m.selectAccount((selected + 1) % accountCount)
		}
	case key.Matches(msg, m.keys.PrevAccount):
		if accountCount > 0 {
			return m.selectAccount((selected - 1 + accountCount) % accountCount)
		}
	case key.Matches(msg, m.keys.FirstAccount):
		if accountCount > 0 {
			return m.selectAccount(0)
		}
	case key.Matches(msg, m.keys.LastAccount):
		if accountCount > 0 {
			return m.selectAccount(accountCount - 1)
		}
	case key.Matches(msg, m.keys.Expand):
		if acc, ok := m.state.GetSelectedAccount(); ok {
			m.state.ToggleExpanded(acc.ID)
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// selectAccount moves the selection and announces the change so other
// tabs can react, e.g. the history tab reloading its series.
func (m *Model) selectAccount(index int) tea.Cmd {
	m.state.SetSelectedAccountIndex(index)
	acc, ok := m.state.GetSelectedAccount()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return app.SelectedAccountChangedMsg{Index: index, Email: acc.Email}
	}
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextAccount,
		m.keys.PrevAccount,
		m.keys.Expand,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextAccount, m.keys.PrevAccount},
		{m.keys.FirstAccount, m.keys.LastAccount},
		{m.keys.Expand},
	}
}
