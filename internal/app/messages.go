package app

import (
	"time"

	"github.com/may1350/vibelens/internal/services"
)

// TickMsg is sent every second to refresh countdowns and freshness
// labels without touching the network.
type TickMsg struct {
	Time time.Time
}

// PollCompletedMsg signals a manual poll finished.
type PollCompletedMsg struct{}

// DeleteAccountResultMsg contains the result of an account deletion.
type DeleteAccountResultMsg struct {
	ID      string
	Success bool
	Error   error
}

// SetEmailResultMsg contains the result of persisting a new email.
type SetEmailResultMsg struct {
	Email   string
	Success bool
	Error   error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// CopyToClipboardMsg requests copying text to clipboard.
type CopyToClipboardMsg struct {
	Text string
}

// ClipboardResultMsg contains the result of a clipboard operation.
type ClipboardResultMsg struct {
	Success bool
	Error   error
}

// OpenURLMsg requests opening a URL in the browser.
type OpenURLMsg struct {
	URL string
}

// OpenURLResultMsg contains the result of opening a URL.
type OpenURLResultMsg struct {
	URL     string
	Success bool
	Error   error
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// SelectedAccountChangedMsg signals that the selected account in the UI has changed.
type SelectedAccountChangedMsg struct {
	Index int
	Email string
}
