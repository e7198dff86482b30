package sync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/may1350/vibelens/internal/kv"
	"github.com/may1350/vibelens/internal/models"
)

func newTestStore(t *testing.T) (*Store, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	s, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s, mem
}

func snapshotAt(email string, usage int, ts time.Time) models.Snapshot {
	return models.Snapshot{
		Email:      email,
		Timestamp:  ts.UnixMilli(),
		DailyUsage: usage,
		Models: []models.ModelQuota{
			{Name: "Fast Model", Percentage: 42, Status: "42% Left"},
		},
	}
}

func TestIngestProvisionsNewAccount(t *testing.T) {
	s, mem := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	change, err := s.Ingest(snapshotAt("dev@example.com", 1200, ts))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if change != ChangeStructural {
		t.Errorf("change = %v, want ChangeStructural", change)
	}

	accounts := s.Accounts()
	if len(accounts) != 1 {
		t.Fatalf("len(accounts) = %d, want 1", len(accounts))
	}
	acc := accounts[0]
	if acc.Label != models.AutoProvisionedLabel {
		t.Errorf("Label = %q, want %q", acc.Label, models.AutoProvisionedLabel)
	}
	if acc.SyncKey != models.AutoProvisionedKey {
		t.Errorf("SyncKey = %q, want %q", acc.SyncKey, models.AutoProvisionedKey)
	}
	if len(acc.History) != models.HistoryLength {
		t.Fatalf("len(History) = %d, want %d", len(acc.History), models.HistoryLength)
	}
	if got := acc.History[len(acc.History)-1]; got != 1200 {
		t.Errorf("tail slot = %d, want 1200", got)
	}
	for _, v := range acc.History[:len(acc.History)-1] {
		if v != 0 {
			t.Fatal("non-tail history slots should be zero on provision")
		}
	}

	// Persisted immediately.
	raw, ok, err := mem.Get(AccountsKey)
	if err != nil || !ok {
		t.Fatalf("accounts not persisted: ok=%v err=%v", ok, err)
	}
	var persisted []models.Account
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted accounts unparsable: %v", err)
	}
	if len(persisted) != 1 || persisted[0].Email != "dev@example.com" {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestIngestIsIdempotentPerEmail(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Ingest(snapshotAt("dev@example.com", 100, ts))
	change, err := s.Ingest(snapshotAt("dev@example.com", 250, ts.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if change != ChangeValue {
		t.Errorf("change = %v, want ChangeValue", change)
	}

	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}

	acc := s.Accounts()[0]
	// Same UTC day: the tail slot is overwritten, not shifted.
	if got := acc.History[len(acc.History)-1]; got != 250 {
		t.Errorf("tail slot = %d, want 250", got)
	}
	if got := acc.History[len(acc.History)-2]; got != 0 {
		t.Errorf("slot before tail = %d, want 0", got)
	}
}

func TestIngestZeroUsageKeepsSlot(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Ingest(snapshotAt("dev@example.com", 900, ts))
	s.Ingest(snapshotAt("dev@example.com", 0, ts.Add(time.Minute)))

	acc := s.Accounts()[0]
	if got := acc.History[len(acc.History)-1]; got != 900 {
		t.Errorf("tail slot = %d, want 900 (zero usage must not clear it)", got)
	}
}

func TestIngestDayRolloverShiftsHistory(t *testing.T) {
	s, _ := newTestStore(t)
	day1 := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 0, 10, 0, 0, time.UTC)

	s.Ingest(snapshotAt("dev@example.com", 900, day1))
	s.Ingest(snapshotAt("dev@example.com", 50, day2))

	acc := s.Accounts()[0]
	n := len(acc.History)
	if acc.History[n-1] != 50 {
		t.Errorf("tail slot = %d, want 50 (new day's usage)", acc.History[n-1])
	}
	if acc.History[n-2] != 900 {
		t.Errorf("previous slot = %d, want 900 (yesterday shifted left)", acc.History[n-2])
	}
}

func TestIngestLongRunAccruesDailyHistory(t *testing.T) {
	s, _ := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	days := 14
	for i := 0; i < days; i++ {
		ts := base.AddDate(0, 0, i)
		if _, err := s.Ingest(snapshotAt("dev@example.com", 500+i, ts)); err != nil {
			t.Fatalf("Ingest() day %d error = %v", i, err)
		}
	}

	acc := s.Accounts()[0]
	n := len(acc.History)
	for i := 0; i < days; i++ {
		want := 500 + i
		if got := acc.History[n-days+i]; got != want {
			t.Fatalf("History[%d] = %d, want %d (day %d must survive)", n-days+i, got, want, i)
		}
	}
	for _, v := range acc.History[:n-days] {
		if v != 0 {
			t.Fatal("slots before the accrued window should be zero")
		}
	}
}

func TestIngestDegradedSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Degraded for an unknown email: nothing provisioned.
	change, err := s.Ingest(models.Snapshot{
		Email:     "Login Required",
		Timestamp: ts.UnixMilli(),
		Degraded:  true,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if change != ChangeNone {
		t.Errorf("change = %v, want ChangeNone", change)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}

	// Degraded for a known email: timestamp bumps, models survive.
	s.Ingest(snapshotAt("dev@example.com", 100, ts))
	later := ts.Add(5 * time.Minute)
	change, err = s.Ingest(models.Snapshot{
		Email:     "dev@example.com",
		Timestamp: later.UnixMilli(),
		Degraded:  true,
		Models: []models.ModelQuota{
			{Name: "Antigravity Sync", Status: "Connecting..."},
		},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if change != ChangeValue {
		t.Errorf("change = %v, want ChangeValue", change)
	}

	acc := s.Accounts()[0]
	if acc.LastSyncTimestamp != later.UnixMilli() {
		t.Errorf("LastSyncTimestamp = %d, want %d", acc.LastSyncTimestamp, later.UnixMilli())
	}
	if len(acc.Models) != 1 || acc.Models[0].Name != "Fast Model" {
		t.Errorf("degraded ingest overwrote models: %+v", acc.Models)
	}
}

func TestLoadPurgesMockHistory(t *testing.T) {
	mem := kv.NewMemoryStore()

	history := models.NewHistory()
	for i := 0; i < 20; i++ {
		history[i] = 5000 + i
	}
	seeded := []models.Account{{
		ID:      "acc_1",
		Label:   "Seeded",
		Email:   "old@example.com",
		History: history,
	}}
	data, _ := json.Marshal(seeded)
	mem.Set(AccountsKey, string(data))

	s, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	acc := s.Accounts()[0]
	for i, v := range acc.History {
		if v != 0 {
			t.Fatalf("History[%d] = %d, want 0 after mock purge", i, v)
		}
	}

	// Purge persists back, and the store is marked migrated.
	raw, _, _ := mem.Get(AccountsKey)
	var persisted []models.Account
	json.Unmarshal([]byte(raw), &persisted)
	for _, v := range persisted[0].History {
		if v != 0 {
			t.Fatal("purged history was not persisted")
		}
	}
	if marker, ok, _ := mem.Get(MigratedKey); !ok || marker == "" {
		t.Error("migration marker not set after purge")
	}
}

func TestMigratedStoreNeverPurgesAgain(t *testing.T) {
	mem := kv.NewMemoryStore()
	mem.Set(MigratedKey, "1")

	history := models.NewHistory()
	n := len(history)
	for i := 0; i < 14; i++ {
		history[n-14+i] = 500 + i
	}
	seeded := []models.Account{{
		ID:      "acc_1",
		Email:   "dev@example.com",
		History: history,
	}}
	data, _ := json.Marshal(seeded)
	mem.Set(AccountsKey, string(data))

	s, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	acc := s.Accounts()[0]
	for i := 0; i < 14; i++ {
		if got := acc.History[n-14+i]; got != 500+i {
			t.Fatalf("History[%d] = %d, want %d (accrued history must survive load)", n-14+i, got, 500+i)
		}
	}

	// Reload goes through the same path; still untouched.
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	acc = s.Accounts()[0]
	if acc.History[n-1] != 513 {
		t.Errorf("tail slot = %d, want 513 after reload", acc.History[n-1])
	}
}

func TestLoadNormalizesShortHistory(t *testing.T) {
	mem := kv.NewMemoryStore()
	seeded := []models.Account{{
		ID:      "acc_1",
		Email:   "short@example.com",
		History: []int{1, 2, 3},
	}}
	data, _ := json.Marshal(seeded)
	mem.Set(AccountsKey, string(data))

	s, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	acc := s.Accounts()[0]
	if len(acc.History) != models.HistoryLength {
		t.Fatalf("len(History) = %d, want %d", len(acc.History), models.HistoryLength)
	}
	n := len(acc.History)
	if acc.History[n-1] != 3 || acc.History[n-2] != 2 || acc.History[n-3] != 1 {
		t.Errorf("tail = %v, want [1 2 3] at the end", acc.History[n-3:])
	}
}

func TestAddAndDeleteAccount(t *testing.T) {
	s, _ := newTestStore(t)

	acc, err := s.AddAccount("Work", "work@example.com", "AG-SYNC-AAAAA")
	if err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	if acc.Label != "Work" || acc.SyncKey != "AG-SYNC-AAAAA" {
		t.Errorf("account = %+v", acc)
	}

	if _, err := s.AddAccount("Dup", "work@example.com", "X"); err == nil {
		t.Error("AddAccount() with duplicate email should fail")
	}

	if err := s.DeleteAccount(acc.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}

	if err := s.DeleteAccount("acc_missing"); err == nil {
		t.Error("DeleteAccount() for unknown id should fail")
	}
}

func TestAccountEmailRoundTrip(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := s.AccountEmail(); got != "" {
		t.Errorf("AccountEmail() = %q, want empty", got)
	}

	if err := s.SetAccountEmail("dev@example.com"); err != nil {
		t.Fatalf("SetAccountEmail() error = %v", err)
	}

	// A fresh store over the same KV sees the email.
	s2, err := New(mem)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s2.AccountEmail(); got != "dev@example.com" {
		t.Errorf("AccountEmail() = %q, want %q", got, "dev@example.com")
	}
}

func TestAccountsReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Ingest(snapshotAt("dev@example.com", 100, ts))

	got := s.Accounts()
	got[0].History[0] = 999999
	got[0].Models[0].Name = "mutated"

	fresh := s.Accounts()[0]
	if fresh.History[0] != 0 {
		t.Error("mutating returned history leaked into the store")
	}
	if fresh.Models[0].Name != "Fast Model" {
		t.Error("mutating returned models leaked into the store")
	}
}

func TestGenerateSyncKey(t *testing.T) {
	for i := 0; i < 50; i++ {
		key := GenerateSyncKey()
		if !strings.HasPrefix(key, "AG-SYNC-") {
			t.Fatalf("key %q missing prefix", key)
		}
		suffix := strings.TrimPrefix(key, "AG-SYNC-")
		if len(suffix) != 5 {
			t.Fatalf("key %q suffix length = %d, want 5", key, len(suffix))
		}
		if suffix != strings.ToUpper(suffix) {
			t.Fatalf("key %q suffix not uppercase", key)
		}
	}
}
