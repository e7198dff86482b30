package history

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/app"
	"github.com/may1350/vibelens/internal/db"
	"github.com/may1350/vibelens/internal/models"
)

func TestNew(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.timeRange != TimeRange30Days {
		t.Error("default range should be 30 days")
	}
}

func TestTimeRange_Cycle(t *testing.T) {
	r := TimeRange30Days
	r = r.Next()
	if r != TimeRange90Days || r.Days() != 90 {
		t.Errorf("after first toggle: %v (%d days)", r, r.Days())
	}
	r = r.Next()
	if r != TimeRangeFull || r.Days() != models.HistoryLength {
		t.Errorf("after second toggle: %v (%d days)", r, r.Days())
	}
	r = r.Next()
	if r != TimeRange30Days {
		t.Errorf("range should wrap back to 30 days, got %v", r)
	}
}

func TestModel_LoadWithoutServices(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)

	msg := m.loadHistoryCmd()()
	errMsg, ok := msg.(historyErrorMsg)
	if !ok {
		t.Fatalf("expected historyErrorMsg, got %T", msg)
	}
	if errMsg.err == "" {
		t.Error("expected an error message")
	}
}

func TestModel_HistoryLoaded(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)
	m.SetSize(100, 30)

	m.Update(historyLoadedMsg{
		email: "dev@example.com",
		points: []db.UsagePoint{
			{Day: "2026-02-27", DailyUsage: 300},
			{Day: "2026-02-28", DailyUsage: 900},
			{Day: "2026-03-01", DailyUsage: 150},
		},
	})

	if m.loading {
		t.Error("loading should clear after data arrives")
	}

	view := m.View()
	if !strings.Contains(view, "dev@example.com") {
		t.Error("view should name the account")
	}
	if !strings.Contains(view, "2026-02-27") || !strings.Contains(view, "2026-03-01") {
		t.Error("view should show the data range")
	}
	if !strings.Contains(view, "1350") {
		t.Error("view should show the usage total")
	}
	if !strings.Contains(view, "2026-02-28") {
		t.Error("view should name the peak day")
	}
}

func TestModel_HistoryError(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)
	m.SetSize(80, 24)

	m.Update(historyErrorMsg{err: "database closed"})

	view := m.View()
	if !strings.Contains(view, "database closed") {
		t.Error("view should surface the load error")
	}
}

func TestModel_EmptyView(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)
	m.SetSize(80, 24)

	m.Update(historyLoadedMsg{email: "dev@example.com"})

	view := m.View()
	if !strings.Contains(view, "No usage recorded") {
		t.Error("empty dataset should show the placeholder")
	}
}

func TestModel_ToggleRangeKey(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.timeRange != TimeRange90Days {
		t.Errorf("t should advance the range, got %v", m.timeRange)
	}
	if cmd == nil {
		t.Error("range toggle should trigger a reload")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewAppState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
