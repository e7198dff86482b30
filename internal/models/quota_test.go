package models

import (
	"testing"
	"time"
)

func TestPercentFromFraction(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     int
	}{
		{"full", 1.0, 100},
		{"empty", 0.0, 0},
		{"half", 0.5, 50},
		{"rounds up", 0.666, 67},
		{"rounds down", 0.333, 33},
		{"clamped above", 1.5, 100},
		{"clamped below", -0.1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PercentFromFraction(tt.fraction); got != tt.want {
				t.Errorf("PercentFromFraction(%v) = %d, want %d", tt.fraction, got, tt.want)
			}
		})
	}
}

func TestStatusForPercent(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{100, "Full"},
		{101, "Full"},
		{99, "99% Left"},
		{0, "0% Left"},
	}

	for _, tt := range tests {
		if got := StatusForPercent(tt.percent); got != tt.want {
			t.Errorf("StatusForPercent(%d) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		resetAt int64
		want    string
	}{
		{"one hour one minute one second", now.UnixMilli() + 3661000, "01:01:01"},
		{"already elapsed", now.UnixMilli() - 1000, "Ready"},
		{"exactly now", now.UnixMilli(), "Ready"},
		{"unknown", 0, "Calculating..."},
		{"under a minute", now.UnixMilli() + 59000, "00:00:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCountdown(tt.resetAt, now); got != tt.want {
				t.Errorf("FormatCountdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextUTCMidnight(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	got := NextUTCMidnight(now)
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("NextUTCMidnight() = %d, want %d", got, want)
	}

	// Must always be in the future, even right at midnight.
	midnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if NextUTCMidnight(midnight) <= midnight.UnixMilli() {
		t.Error("NextUTCMidnight at midnight should return the following day")
	}
}

func TestSortModelQuotas(t *testing.T) {
	t1 := int64(1000)
	t2 := int64(2000)

	quotas := []ModelQuota{
		{Name: "B", Percentage: 100},
		{Name: "A", Percentage: 100},
		{Name: "C", Percentage: 40, ResetAt: t2},
		{Name: "D", Percentage: 10, ResetAt: t1},
	}

	SortModelQuotas(quotas)

	want := []string{"D", "C", "A", "B"}
	for i, name := range want {
		if quotas[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, quotas[i].Name, name)
		}
	}
}

func TestSortModelQuotasStable(t *testing.T) {
	// Two incomplete models with identical reset times keep their
	// original relative order.
	quotas := []ModelQuota{
		{Name: "first", Percentage: 50, ResetAt: 500},
		{Name: "second", Percentage: 30, ResetAt: 500},
	}

	SortModelQuotas(quotas)

	if quotas[0].Name != "first" || quotas[1].Name != "second" {
		t.Errorf("equal reset times reordered: %s, %s", quotas[0].Name, quotas[1].Name)
	}
}
