package db

import (
	"context"
	"fmt"
	"time"

	"github.com/may1350/vibelens/internal/models"
)

// dayFormat is the UTC calendar-day key used by usage_log.
const dayFormat = "2006-01-02"

// UsagePoint is one day of recorded usage.
type UsagePoint struct {
	Day        string
	DailyUsage int
}

// RecordSnapshot upserts the snapshot's daily usage for its UTC day.
// Later snapshots on the same day overwrite earlier ones, matching the
// in-memory history's last-slot semantics.
func (db *DB) RecordSnapshot(ctx context.Context, snap models.Snapshot) error {
	if snap.Degraded {
		return nil
	}

	day := time.UnixMilli(snap.Timestamp).UTC().Format(dayFormat)
	query := `
	INSERT INTO usage_log (email, day, daily_usage, model_count)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(email, day) DO UPDATE SET
		daily_usage = excluded.daily_usage,
		model_count = excluded.model_count,
		recorded_at = CURRENT_TIMESTAMP
	`
	_, err := db.ExecContext(ctx, query, snap.Email, day, snap.DailyUsage, len(snap.Models))
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// DailyUsageSeries returns up to days of recorded usage for email,
// oldest first.
func (db *DB) DailyUsageSeries(ctx context.Context, email string, days int) ([]UsagePoint, error) {
	query := `
	SELECT day, daily_usage
	FROM usage_log
	WHERE email = ?
	ORDER BY day DESC
	LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, email, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage series: %w", err)
	}
	defer rows.Close()

	var points []UsagePoint
	for rows.Next() {
		var p UsagePoint
		if err := rows.Scan(&p.Day, &p.DailyUsage); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// Emails lists the distinct emails with recorded usage.
func (db *DB) Emails(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT email FROM usage_log ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
