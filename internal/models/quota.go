// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ModelQuota represents the remaining quota for a single model, derived
// fresh on every fetch. Percentage is the remaining share, 0-100, where
// 100 means the quota is untouched ("Full").
type ModelQuota struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	Status     string `json:"info"`
	ResetAt    int64  `json:"resetAt,omitempty"`
	ResetIn    string `json:"resetIn"`
}

// IsFull reports whether the model's quota is completely unconsumed.
func (m *ModelQuota) IsFull() bool {
	return m.Percentage >= 100
}

// Snapshot is one fetch cycle's full telemetry result for one account.
// Degraded marks snapshots produced while the language server was
// unreachable; they carry a placeholder model instead of real data.
type Snapshot struct {
	Email      string       `json:"email"`
	Timestamp  int64        `json:"timestamp"`
	DailyUsage int          `json:"dailyUsage"`
	Models     []ModelQuota `json:"models"`
	Degraded   bool         `json:"-"`
}

// ClampPercent clamps a remaining percentage to the displayable [0, 100] range.
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PercentFromFraction converts a remaining fraction (0.0-1.0) to a
// clamped integer percentage.
func PercentFromFraction(fraction float64) int {
	return ClampPercent(int(math.Round(fraction * 100)))
}

// StatusForPercent returns the display status for a remaining percentage.
func StatusForPercent(p int) string {
	if p >= 100 {
		return "Full"
	}
	return fmt.Sprintf("%d%% Left", p)
}

// FormatCountdown renders the time until resetAt (epoch millis) as
// HH:MM:SS. A reset in the past renders as "Ready"; an unknown reset
// time renders as a placeholder.
func FormatCountdown(resetAt int64, now time.Time) string {
	if resetAt == 0 {
		return "Calculating..."
	}

	diff := resetAt - now.UnixMilli()
	if diff <= 0 {
		return "Ready"
	}

	h := diff / 3_600_000
	m := (diff % 3_600_000) / 60_000
	s := (diff % 60_000) / 1_000
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// NextUTCMidnight returns the next global reset boundary (the upcoming
// UTC midnight) in epoch millis.
func NextUTCMidnight(now time.Time) int64 {
	utc := now.UTC()
	next := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.UnixMilli()
}

// SortModelQuotas orders models so the most time-sensitive information
// comes first: models with remaining quota to burn precede full ones,
// ordered by soonest reset; full models sort alphabetically.
func SortModelQuotas(models []ModelQuota) {
	sort.SliceStable(models, func(i, j int) bool {
		a, b := &models[i], &models[j]
		if a.IsFull() != b.IsFull() {
			return !a.IsFull()
		}
		if !a.IsFull() {
			return a.ResetAt < b.ResetAt
		}
		return a.Name < b.Name
	})
}
