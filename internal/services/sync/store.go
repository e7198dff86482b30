// Package sync reconciles incoming quota snapshots into persistent
// multi-account state.
package sync

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	stdsync "sync"
	"time"

	"github.com/may1350/vibelens/internal/kv"
	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
)

// Storage keys. The accounts document is one JSON array; the email is
// a bare string carrying cross-session identity. MigratedKey marks a
// store whose legacy mock histories have already been cleared, so the
// clearing runs exactly once per store file.
const (
	AccountsKey = "vibelens_accounts"
	EmailKey    = "vibelens_email"
	MigratedKey = "vibelens_history_migrated"
)

// ChangeKind classifies what an ingest did, so the presentation layer
// knows whether the set of rendered cards changed (structural) or only
// their contents (value).
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeStructural
	ChangeValue
)

// Store holds reconciled account state and persists it through a KV
// store on every mutation.
type Store struct {
	mu       stdsync.RWMutex
	kv       kv.Store
	accounts []models.Account
	email    string
	now      func() time.Time
}

// New loads existing state from kvStore. The first time a store file
// is opened, histories that look like legacy mock data are cleared and
// the file is marked migrated; genuine history accrued afterwards is
// never touched again.
func New(kvStore kv.Store) (*Store, error) {
	s := &Store{
		kv:  kvStore,
		now: time.Now,
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(AccountsKey)
	if err != nil {
		return fmt.Errorf("failed to read accounts: %w", err)
	}

	var accounts []models.Account
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
			return fmt.Errorf("failed to parse accounts: %w", err)
		}
	}

	migrated, _, err := s.kv.Get(MigratedKey)
	if err != nil {
		return fmt.Errorf("failed to read migration marker: %w", err)
	}

	purged := false
	for i := range accounts {
		accounts[i].NormalizeHistory()
		if migrated == "" && accounts[i].PurgeMockHistory() {
			purged = true
			logger.Info("cleared mock history", "email", accounts[i].Email)
		}
	}
	s.accounts = accounts

	email, _, err := s.kv.Get(EmailKey)
	if err != nil {
		return fmt.Errorf("failed to read account email: %w", err)
	}
	s.email = email

	if migrated == "" {
		if err := s.kv.Set(MigratedKey, "1"); err != nil {
			return fmt.Errorf("failed to persist migration marker: %w", err)
		}
	}
	if purged {
		if err := s.saveLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Reload re-reads state from the KV store, picking up external writes.
func (s *Store) Reload() error {
	return s.load()
}

// Ingest merges a snapshot into account state. An unseen email is
// auto-provisioned with a zeroed history (structural change); a known
// email gets its models and history updated in place (value change).
// Degraded snapshots never provision and never overwrite real models.
func (s *Store) Ingest(snap models.Snapshot) (ChangeKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	idx := s.indexByEmailLocked(snap.Email)

	if idx == -1 {
		if snap.Degraded {
			// A placeholder snapshot carries no identity worth
			// creating an account for.
			return ChangeNone, nil
		}
		acc := models.NewAutoAccount(snap.Email, now)
		acc.Models = snap.Models
		acc.LastSync = "CONNECTED"
		acc.LastSyncTimestamp = snap.Timestamp
		s.applyUsageLocked(&acc, snap)
		s.accounts = append(s.accounts, acc)

		if err := s.saveLocked(); err != nil {
			s.accounts = s.accounts[:len(s.accounts)-1]
			return ChangeNone, err
		}
		return ChangeStructural, nil
	}

	acc := &s.accounts[idx]

	if snap.Degraded {
		acc.LastSyncTimestamp = snap.Timestamp
		if err := s.saveLocked(); err != nil {
			return ChangeNone, err
		}
		return ChangeValue, nil
	}

	acc.Models = snap.Models
	acc.LastSync = "CONNECTED"
	prevSync := acc.LastSyncTimestamp
	acc.LastSyncTimestamp = snap.Timestamp
	s.rolloverLocked(acc, prevSync, snap.Timestamp)
	s.applyUsageLocked(acc, snap)

	if err := s.saveLocked(); err != nil {
		return ChangeNone, err
	}
	return ChangeValue, nil
}

// rolloverLocked shifts the history left by one slot when the incoming
// snapshot lands on a later UTC day than the previous sync, so each
// slot keeps meaning one calendar day.
func (s *Store) rolloverLocked(acc *models.Account, prevMillis, nextMillis int64) {
	if prevMillis == 0 || nextMillis == 0 {
		return
	}
	prevDay := time.UnixMilli(prevMillis).UTC().Truncate(24 * time.Hour)
	nextDay := time.UnixMilli(nextMillis).UTC().Truncate(24 * time.Hour)
	if !nextDay.After(prevDay) {
		return
	}

	copy(acc.History, acc.History[1:])
	acc.History[len(acc.History)-1] = 0
}

// applyUsageLocked writes the snapshot's daily usage into the last
// history slot. Zero usage leaves the slot alone.
func (s *Store) applyUsageLocked(acc *models.Account, snap models.Snapshot) {
	if snap.DailyUsage == 0 || len(acc.History) == 0 {
		return
	}
	acc.History[len(acc.History)-1] = snap.DailyUsage
}

// Accounts returns a deep copy of all accounts.
func (s *Store) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, len(s.accounts))
	for i := range s.accounts {
		out[i] = s.accounts[i].Clone()
	}
	return out
}

// AccountByEmail returns a copy of the account with the given email,
// or false when none exists.
func (s *Store) AccountByEmail(email string) (models.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexByEmailLocked(email)
	if idx == -1 {
		return models.Account{}, false
	}
	return s.accounts[idx].Clone(), true
}

// AddAccount registers a user-created account with a zeroed history.
func (s *Store) AddAccount(label, email, syncKey string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByEmailLocked(email) != -1 {
		return models.Account{}, fmt.Errorf("account with email %s already exists", email)
	}

	acc := models.NewAutoAccount(email, s.now())
	acc.Label = label
	acc.SyncKey = syncKey
	acc.LastSync = "Waiting..."
	acc.Models = []models.ModelQuota{
		{Name: "Gemini 1.5 Flash", Percentage: 0, Status: "Syncing..."},
	}
	s.accounts = append(s.accounts, acc)

	if err := s.saveLocked(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return models.Account{}, err
	}
	return acc.Clone(), nil
}

// DeleteAccount removes an account by id.
func (s *Store) DeleteAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("account not found: %s", id)
	}

	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)
	return s.saveLocked()
}

// AccountEmail returns the configured identity email.
func (s *Store) AccountEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// SetAccountEmail persists the configured identity email.
func (s *Store) SetAccountEmail(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(EmailKey, email); err != nil {
		return fmt.Errorf("failed to persist account email: %w", err)
	}
	s.email = email
	return nil
}

// Count returns the number of accounts.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) indexByEmailLocked(email string) int {
	for i := range s.accounts {
		if s.accounts[i].Email == email {
			return i
		}
	}
	return -1
}

// saveLocked persists the whole account collection (must hold lock).
func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	if err := s.kv.Set(AccountsKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist accounts: %w", err)
	}
	return nil
}

const syncKeyChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSyncKey produces a shareable key like "AG-SYNC-K3X9P".
func GenerateSyncKey() string {
	var b strings.Builder
	b.WriteString("AG-SYNC-")
	for i := 0; i < 5; i++ {
		b.WriteByte(syncKeyChars[rand.Intn(len(syncKeyChars))])
	}
	return strings.ToUpper(b.String())
}
