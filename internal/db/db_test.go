package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/may1350/vibelens/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return database
}

func snapshotOn(email string, usage int, day time.Time) models.Snapshot {
	return models.Snapshot{
		Email:      email,
		Timestamp:  day.UnixMilli(),
		DailyUsage: usage,
		Models:     []models.ModelQuota{{Name: "M"}},
	}
}

func TestRecordSnapshotUpserts(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := database.RecordSnapshot(ctx, snapshotOn("dev@example.com", 100, day)); err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}
	// Same UTC day, later snapshot: overwrites.
	if err := database.RecordSnapshot(ctx, snapshotOn("dev@example.com", 450, day.Add(6*time.Hour))); err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}

	points, err := database.DailyUsageSeries(ctx, "dev@example.com", 30)
	if err != nil {
		t.Fatalf("DailyUsageSeries() error = %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].Day != "2026-03-01" || points[0].DailyUsage != 450 {
		t.Errorf("point = %+v, want {2026-03-01 450}", points[0])
	}
}

func TestDailyUsageSeriesChronological(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		snap := snapshotOn("dev@example.com", (i+1)*100, base.AddDate(0, 0, i))
		if err := database.RecordSnapshot(ctx, snap); err != nil {
			t.Fatalf("RecordSnapshot() error = %v", err)
		}
	}

	points, err := database.DailyUsageSeries(ctx, "dev@example.com", 3)
	if err != nil {
		t.Fatalf("DailyUsageSeries() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	// The three most recent days, oldest first.
	want := []UsagePoint{
		{Day: "2026-03-03", DailyUsage: 300},
		{Day: "2026-03-04", DailyUsage: 400},
		{Day: "2026-03-05", DailyUsage: 500},
	}
	for i, p := range points {
		if p != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestRecordSnapshotSkipsDegraded(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	snap := models.Snapshot{
		Email:     "Login Required",
		Timestamp: time.Now().UnixMilli(),
		Degraded:  true,
	}
	if err := database.RecordSnapshot(ctx, snap); err != nil {
		t.Fatalf("RecordSnapshot() error = %v", err)
	}

	emails, err := database.Emails(ctx)
	if err != nil {
		t.Fatalf("Emails() error = %v", err)
	}
	if len(emails) != 0 {
		t.Errorf("Emails() = %v, want empty (degraded snapshots are not recorded)", emails)
	}
}

func TestEmails(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	database.RecordSnapshot(ctx, snapshotOn("b@example.com", 1, day))
	database.RecordSnapshot(ctx, snapshotOn("a@example.com", 2, day))

	emails, err := database.Emails(ctx)
	if err != nil {
		t.Fatalf("Emails() error = %v", err)
	}
	if len(emails) != 2 || emails[0] != "a@example.com" || emails[1] != "b@example.com" {
		t.Errorf("Emails() = %v, want [a@example.com b@example.com]", emails)
	}
}
