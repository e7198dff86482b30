package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/app"
	"github.com/may1350/vibelens/internal/models"
)

func testAccount(id, email string) models.Account {
	return models.Account{
		ID:                id,
		Label:             "Dev " + id,
		Email:             email,
		SyncKey:           "AG-SYNC-ABC12",
		LastSync:          "CONNECTED",
		LastSyncTimestamp: time.Now().UnixMilli(),
		History:           models.NewHistory(),
		Models: []models.ModelQuota{
			{Name: "Gemini 3 Pro", Percentage: 42, Status: "42% Left", ResetAt: time.Now().Add(time.Hour).UnixMilli()},
			{Name: "Claude Sonnet", Percentage: 0, Status: "Full"},
		},
	}
}

func TestNew(t *testing.T) {
	state := app.NewAppState()
	m := New(state)
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_Init(t *testing.T) {
	state := app.NewAppState()
	m := New(state)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_Update(t *testing.T) {
	state := app.NewAppState()
	m := New(state)

	updated, cmd := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
	_ = cmd
}

func TestModel_View(t *testing.T) {
	state := app.NewAppState()
	state.SetInitialLoading(false)
	m := New(state)
	m.SetSize(100, 30)

	// View with no data
	view := m.View()
	if view == "" {
		t.Error("View returned empty string")
	}
	if !strings.Contains(view, "No accounts yet") {
		t.Error("empty view should show placeholder")
	}

	state.SetAccounts([]models.Account{testAccount("acc_1", "dev@example.com")})

	view = m.View()
	if !strings.Contains(view, "dev@example.com") {
		t.Logf("View content: %q", view)
		t.Error("View should contain email")
	}
	if !strings.Contains(view, "Gemini 3 Pro") {
		t.Logf("View content: %q", view)
		t.Error("View should contain model name")
	}
	if !strings.Contains(view, "CONNECTED") {
		t.Error("View should show sync status")
	}
}

func TestModel_View_Expanded(t *testing.T) {
	state := app.NewAppState()
	state.SetInitialLoading(false)
	acc := testAccount("acc_1", "dev@example.com")
	acc.History[models.HistoryLength-1] = 1234
	state.SetAccounts([]models.Account{acc})

	m := New(state)
	m.SetSize(120, 40)

	state.ToggleExpanded("acc_1")
	view := m.View()
	if !strings.Contains(view, "AG-SYNC-ABC12") {
		t.Error("expanded view should show the sync key")
	}
	if !strings.Contains(view, "1,234") {
		t.Error("expanded view should show credits used today")
	}
	if !strings.Contains(view, "Daily Usage") {
		t.Error("expanded view should show the usage heatmap")
	}
}

func TestModel_View_DegradedBanner(t *testing.T) {
	state := app.NewAppState()
	state.SetInitialLoading(false)
	state.SetSnapshot(models.Snapshot{Email: "dev@example.com", Degraded: true})

	m := New(state)
	m.SetSize(100, 30)

	if !strings.Contains(m.View(), "unreachable") {
		t.Error("degraded snapshot should surface a warning banner")
	}
}

func TestModel_SelectionKeys(t *testing.T) {
	state := app.NewAppState()
	state.SetInitialLoading(false)
	state.SetAccounts([]models.Account{
		testAccount("acc_1", "a@example.com"),
		testAccount("acc_2", "b@example.com"),
	})

	m := New(state)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if state.GetSelectedAccountIndex() != 1 {
		t.Errorf("selected = %d, want 1", state.GetSelectedAccountIndex())
	}

	// Wraps around
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if state.GetSelectedAccountIndex() != 0 {
		t.Errorf("selected = %d, want 0 after wrap", state.GetSelectedAccountIndex())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if state.GetSelectedAccountIndex() != 1 {
		t.Errorf("selected = %d, want 1 after up-wrap", state.GetSelectedAccountIndex())
	}
}

func TestModel_ExpandKey(t *testing.T) {
	state := app.NewAppState()
	state.SetInitialLoading(false)
	state.SetAccounts([]models.Account{testAccount("acc_1", "a@example.com")})

	m := New(state)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !state.IsExpanded("acc_1") {
		t.Error("enter should expand the selected card")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if state.IsExpanded("acc_1") {
		t.Error("enter again should collapse the card")
	}
}

func TestModel_SetSize(t *testing.T) {
	state := app.NewAppState()
	m := New(state)
	m.SetSize(100, 50)
}

func TestModel_Help(t *testing.T) {
	state := app.NewAppState()
	m := New(state)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
