package app

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/services"
)

const (
	// DefaultTickInterval drives countdown and freshness redraws.
	DefaultTickInterval = 1 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// pollNowCmd triggers one synchronous acquisition cycle.
func pollNowCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Poll()
		return PollCompletedMsg{}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// deleteAccountCmd returns a command that deletes an account.
func deleteAccountCmd(mgr *services.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.DeleteAccount(id)
		return DeleteAccountResultMsg{
			ID:      id,
			Success: err == nil,
			Error:   err,
		}
	}
}

// setEmailCmd returns a command that persists a new account email.
func setEmailCmd(mgr *services.Manager, email string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.SetAccountEmail(email)
		return SetEmailResultMsg{
			Email:   email,
			Success: err == nil,
			Error:   err,
		}
	}
}

// copyToClipboardCmd returns a command that copies text to the system clipboard.
func copyToClipboardCmd(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		return ClipboardResultMsg{
			Success: err == nil,
			Error:   err,
		}
	}
}

// openURLCmd returns a command that opens a URL in the default browser.
func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		err := cmd.Start()
		return OpenURLResultMsg{
			URL:     url,
			Success: err == nil,
			Error:   err,
		}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// delayedCmd returns a command that sends a message after a delay.
func delayedCmd(delay time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return msg
	})
}

// errorMsgCmd wraps an error into an ErrorMsg command.
func errorMsgCmd(context string, err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: fmt.Errorf("%s: %w", context, err), Context: context}
	}
}
