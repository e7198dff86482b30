// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"time"
)

// HistoryLength is the fixed number of daily slots kept per account
// (roughly six months, most recent last).
const HistoryLength = 182

// Default values applied to auto-provisioned accounts.
const (
	AutoProvisionedLabel = "Auto Synced Dev"
	AutoProvisionedKey   = "AUTO"
)

// Account is the persisted per-email record the reconciliation store
// maintains. Email is the identity key; exactly one Account exists per
// distinct email.
type Account struct {
	ID                string       `json:"id"`
	Label             string       `json:"label"`
	Email             string       `json:"email"`
	SyncKey           string       `json:"syncKey,omitempty"`
	LastSync          string       `json:"lastSync,omitempty"`
	LastSyncTimestamp int64        `json:"lastSyncTimestamp,omitempty"`
	History           []int        `json:"history"`
	Models            []ModelQuota `json:"models"`
}

// NewHistory returns a zero-initialized history series.
func NewHistory() []int {
	return make([]int, HistoryLength)
}

// NewAutoAccount creates an account for an email first observed via the
// sync bridge rather than added by the user.
func NewAutoAccount(email string, now time.Time) Account {
	return Account{
		ID:      fmt.Sprintf("acc_%d", now.UnixNano()),
		Label:   AutoProvisionedLabel,
		Email:   email,
		SyncKey: AutoProvisionedKey,
		History: NewHistory(),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() Account {
	clone := *a
	if a.History != nil {
		clone.History = make([]int, len(a.History))
		copy(clone.History, a.History)
	}
	if a.Models != nil {
		clone.Models = make([]ModelQuota, len(a.Models))
		copy(clone.Models, a.Models)
	}
	return clone
}

// NormalizeHistory pads or truncates the history to HistoryLength,
// keeping the most recent values at the tail.
func (a *Account) NormalizeHistory() {
	switch {
	case a.History == nil:
		a.History = NewHistory()
	case len(a.History) < HistoryLength:
		padded := make([]int, HistoryLength)
		copy(padded[HistoryLength-len(a.History):], a.History)
		a.History = padded
	case len(a.History) > HistoryLength:
		a.History = a.History[len(a.History)-HistoryLength:]
	}
}

// IntensityLevel buckets a daily credit consumption value for heatmap
// display: 0 none, 1 low, 2 medium, 3 high, 4 max.
func IntensityLevel(tokens int) int {
	switch {
	case tokens > 10000:
		return 4
	case tokens > 5000:
		return 3
	case tokens > 1000:
		return 2
	case tokens > 0:
		return 1
	default:
		return 0
	}
}

// LooksLikeMockHistory detects the randomly generated series older
// builds seeded history with. Real synced data accrues one slot per
// day, so more than 10 populated entries on first load means the
// series is synthetic noise.
func LooksLikeMockHistory(history []int) bool {
	nonzero := 0
	for _, v := range history {
		if v > 0 {
			nonzero++
			if nonzero > 10 {
				return true
			}
		}
	}
	return false
}

// PurgeMockHistory zeroes the account's history when it looks like
// legacy mock data. Reports whether anything changed.
func (a *Account) PurgeMockHistory() bool {
	if !LooksLikeMockHistory(a.History) {
		return false
	}
	a.History = NewHistory()
	return true
}

// FormatLastSync renders how fresh the account's last sync is.
func FormatLastSync(timestamp int64, now time.Time) string {
	if timestamp == 0 {
		return "WAITING"
	}
	seconds := (now.UnixMilli() - timestamp) / 1000
	switch {
	case seconds < 5:
		return "LIVE"
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	default:
		return fmt.Sprintf("%dm ago", seconds/60)
	}
}
