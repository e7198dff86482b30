package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/services"
	syncsvc "github.com/may1350/vibelens/internal/services/sync"
)

// fakeTab is a minimal Tab used to exercise routing.
type fakeTab struct {
	updates int
	width   int
	height  int
}

func (f *fakeTab) Init() tea.Cmd { return nil }

func (f *fakeTab) Update(msg tea.Msg) (Tab, tea.Cmd) {
	f.updates++
	return f, nil
}

func (f *fakeTab) View() string { return "fake tab content" }

func (f *fakeTab) SetSize(w, h int) { f.width, f.height = w, h }

func (f *fakeTab) ShortHelp() []key.Binding { return nil }

func (f *fakeTab) FullHelp() [][]key.Binding { return nil }

func newTestModel() (*Model, *fakeTab) {
	m := NewModel(nil)
	tab := &fakeTab{}
	m.SetTabs([]Tab{tab, tab, tab})
	return m, tab
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil)
	if m == nil {
		t.Fatal("NewModel returned nil")
	}
	if m.GetActiveTab() != TabDashboard {
		t.Error("should start on the dashboard tab")
	}
	if m.GetState() == nil {
		t.Error("state should be initialized")
	}
}

func TestTabID_String(t *testing.T) {
	if TabDashboard.String() != "Dashboard" {
		t.Error("TabDashboard label mismatch")
	}
	if TabHistory.String() != "History" {
		t.Error("TabHistory label mismatch")
	}
	if TabInfo.String() != "Info" {
		t.Error("TabInfo label mismatch")
	}
	if TabID(99).String() != "Unknown" {
		t.Error("out-of-range label mismatch")
	}
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel()
	if m.Init() == nil {
		t.Error("Init should return startup commands")
	}
	// Init shows the connecting toast
	if len(m.GetState().GetNotifications()) == 0 {
		t.Error("Init should set the loading notification")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m, tab := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if !m.IsReady() {
		t.Error("model should be ready after a window size message")
	}
	if tab.width != 100 {
		t.Errorf("tab width = %d, want 100", tab.width)
	}
	if tab.height != 35 {
		t.Errorf("tab height = %d, want 35 (window minus chrome)", tab.height)
	}
}

// pressKey sends a key and pumps any resulting message back through
// Update, mirroring what the Bubble Tea runtime does.
func pressKey(m *Model, msg tea.KeyMsg) {
	_, cmd := m.Update(msg)
	for cmd != nil {
		out := cmd()
		if out == nil {
			return
		}
		if batch, ok := out.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c == nil {
					continue
				}
				if inner := c(); inner != nil {
					m.Update(inner)
				}
			}
			return
		}
		_, cmd = m.Update(out)
	}
}

func TestModel_TabSwitching(t *testing.T) {
	m, _ := newTestModel()

	pressKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if m.GetActiveTab() != TabHistory {
		t.Errorf("active = %v, want History", m.GetActiveTab())
	}

	pressKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("active = %v, want Info", m.GetActiveTab())
	}

	pressKey(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.GetActiveTab() != TabDashboard {
		t.Errorf("tab should wrap to Dashboard, got %v", m.GetActiveTab())
	}

	pressKey(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.GetActiveTab() != TabInfo {
		t.Errorf("shift+tab should wrap back to Info, got %v", m.GetActiveTab())
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.showHelp {
		t.Error("? should open help")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}

func TestModel_QuitKey(t *testing.T) {
	m, _ := newTestModel()
	cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_SnapshotIngestedEvent(t *testing.T) {
	m, _ := newTestModel()
	m.GetState().SetAccounts([]models.Account{
		{ID: "acc_1", Email: "dev@example.com", History: models.NewHistory()},
	})

	snap := models.Snapshot{Email: "dev@example.com", DailyUsage: 7}
	m.Update(ServiceEventMsg{Event: services.SnapshotIngestedEvent{
		Snapshot: snap,
		Change:   syncsvc.ChangeValue,
	}})

	got := m.GetState().GetSnapshot()
	if got == nil || got.DailyUsage != 7 {
		t.Errorf("snapshot = %+v", got)
	}
	if m.GetState().IsInitialLoading() {
		t.Error("first ingest should clear initial loading")
	}
}

func TestModel_AccountsChangedEvent(t *testing.T) {
	m, _ := newTestModel()

	m.Update(ServiceEventMsg{Event: services.AccountsChangedEvent{
		Accounts: []models.Account{
			{ID: "acc_1", Email: "dev@example.com", History: models.NewHistory()},
		},
	}})

	if m.GetState().GetAccountCount() != 1 {
		t.Error("accounts event should replace the account list")
	}
}

func TestModel_EmailPrompt(t *testing.T) {
	m, _ := newTestModel()

	// Without a manager the e key is ignored gracefully only when
	// services exist; simulate edit mode directly.
	m.editingEmail = true
	m.emailInput.SetValue("not-an-email")

	cmd := m.handleEmailInputKey(tea.KeyMsg{Type: tea.KeyEnter})
	if m.editingEmail {
		t.Error("enter should leave edit mode")
	}
	if cmd == nil {
		t.Fatal("invalid email should produce a notification command")
	}
	msg := cmd()
	if n, ok := msg.(AddNotificationMsg); !ok || n.Type != NotificationError {
		t.Errorf("expected error notification, got %T", msg)
	}

	// Esc cancels without side effects
	m.editingEmail = true
	m.handleEmailInputKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.editingEmail {
		t.Error("esc should cancel editing")
	}
}

func TestModel_View(t *testing.T) {
	m, _ := newTestModel()

	// Before the first WindowSizeMsg
	view := m.View()
	if !strings.Contains(view, "Connecting") {
		t.Error("unready view should show connecting state")
	}

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view = m.View()
	if !strings.Contains(view, "fake tab content") {
		t.Error("ready view should render the active tab")
	}
	if !strings.Contains(view, "Dashboard") {
		t.Error("view should render the navbar")
	}
}

func TestModel_ViewWithHelp(t *testing.T) {
	m, _ := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})

	view := m.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("help overlay should render")
	}
}

func TestModel_NotificationLifecycle(t *testing.T) {
	m, _ := newTestModel()

	cmds := m.handleAppMsg(AddNotificationMsg{
		Type:     NotificationSuccess,
		Message:  "saved",
		Duration: DefaultNotificationDuration,
	})
	if len(cmds) == 0 {
		t.Error("timed notification should schedule removal")
	}
	notifs := m.GetState().GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "saved" {
		t.Fatalf("notifications = %+v", notifs)
	}

	m.Update(RemoveNotificationMsg{ID: notifs[0].ID})
	if len(m.GetState().GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestDefaultKeyMap_Help(t *testing.T) {
	k := DefaultKeyMap()
	if len(k.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(k.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
