// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/may1350/vibelens/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// AppState is the shared state the tabs render from. Expanded card
// state lives here so a value-only sync never collapses an open card.
type AppState struct {
	mu sync.RWMutex

	Accounts             []models.Account
	LatestSnapshot       *models.Snapshot
	SelectedAccountIndex int
	expanded             map[string]bool

	InitialLoading bool

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

func NewAppState() *AppState {
	return &AppState{
		Accounts:       make([]models.Account, 0),
		expanded:       make(map[string]bool),
		notifications:  make([]Notification, 0),
		InitialLoading: true,
	}
}

// SetInitialLoading marks whether the first sync is still pending.
func (s *AppState) SetInitialLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitialLoading = loading
}

// IsInitialLoading returns true if initial data is still loading.
func (s *AppState) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.InitialLoading
}

// SetAccounts replaces the accounts list (a structural change) and
// drops expanded state for accounts that no longer exist.
func (s *AppState) SetAccounts(accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Accounts = accounts
	s.LastUpdated = time.Now()

	alive := make(map[string]bool, len(accounts))
	for i := range accounts {
		alive[accounts[i].ID] = true
	}
	for id := range s.expanded {
		if !alive[id] {
			delete(s.expanded, id)
		}
	}

	if s.SelectedAccountIndex >= len(accounts) {
		s.SelectedAccountIndex = 0
	}
}

// UpdateAccountValues merges refreshed account contents in place
// without touching selection or expanded state.
func (s *AppState) UpdateAccountValues(accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byEmail := make(map[string]models.Account, len(accounts))
	for i := range accounts {
		byEmail[accounts[i].Email] = accounts[i]
	}
	for i := range s.Accounts {
		if fresh, ok := byEmail[s.Accounts[i].Email]; ok {
			s.Accounts[i] = fresh
		}
	}
	s.LastUpdated = time.Now()
}

// GetAccounts returns a copy of the accounts list.
func (s *AppState) GetAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, len(s.Accounts))
	copy(accounts, s.Accounts)
	return accounts
}

// GetAccountCount returns the number of accounts.
func (s *AppState) GetAccountCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Accounts)
}

// GetSelectedAccount returns the selected account, or false when the
// list is empty.
func (s *AppState) GetSelectedAccount() (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.Accounts) == 0 {
		return models.Account{}, false
	}
	idx := s.SelectedAccountIndex
	if idx < 0 || idx >= len(s.Accounts) {
		idx = 0
	}
	return s.Accounts[idx], true
}

// SetSnapshot records the latest snapshot.
func (s *AppState) SetSnapshot(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LatestSnapshot = &snap
	s.LastUpdated = time.Now()
}

// GetSnapshot returns the latest snapshot, nil before the first poll.
func (s *AppState) GetSnapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LatestSnapshot
}

// ToggleExpanded flips the expanded flag for an account card.
func (s *AppState) ToggleExpanded(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[accountID] = !s.expanded[accountID]
}

// IsExpanded reports whether an account card is expanded.
func (s *AppState) IsExpanded(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded[accountID]
}

// AddNotification adds a new notification and returns its ID.
func (s *AppState) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *AppState) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *AppState) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *AppState) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *AppState) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *AppState) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *AppState) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time the state was updated.
func (s *AppState) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *AppState) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

// GetSelectedAccountIndex returns the currently selected account index.
func (s *AppState) GetSelectedAccountIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SelectedAccountIndex
}

// SetSelectedAccountIndex updates the selected account index.
func (s *AppState) SetSelectedAccountIndex(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SelectedAccountIndex = idx
}
