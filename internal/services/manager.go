// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/may1350/vibelens/internal/config"
	"github.com/may1350/vibelens/internal/db"
	"github.com/may1350/vibelens/internal/kv"
	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/services/bridge"
	"github.com/may1350/vibelens/internal/services/discovery"
	"github.com/may1350/vibelens/internal/services/sync"
	"github.com/may1350/vibelens/internal/services/telemetry"
)

type (
	// SnapshotIngestedEvent is emitted after a poll cycle merged its
	// snapshot into account state.
	SnapshotIngestedEvent struct {
		Snapshot models.Snapshot
		Change   sync.ChangeKind
	}

	// AccountsChangedEvent is emitted when the accounts list changes.
	AccountsChangedEvent struct {
		Accounts []models.Account
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SnapshotIngestedEvent) isServiceEvent() {}
func (AccountsChangedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()            {}

// snapshotPoller is the slice of the telemetry fetcher the manager
// drives; tests substitute a fake.
type snapshotPoller interface {
	Poll() models.Snapshot
	SetEmail(email string)
}

// Manager orchestrates the acquisition pipeline, the bridge, and
// persistence, and routes events to TUI subscribers.
type Manager struct {
	mu           stdsync.RWMutex
	poller       snapshotPoller
	store        *sync.Store
	fileStore    *kv.FileStore
	bridge       *bridge.Server
	database     *db.DB
	dashboardURL string
	pollInterval time.Duration
	stopChan     chan struct{}
	subscribers  []chan ServiceEvent
	prevPercents map[string]int
}

// NewManager wires all services from configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	fileStore, err := kv.OpenFileStore(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	store, err := sync.New(fileStore)
	if err != nil {
		_ = fileStore.Close()
		return nil, fmt.Errorf("failed to load account state: %w", err)
	}

	// The configured email seeds identity on first run; afterwards the
	// persisted value wins.
	if store.AccountEmail() == "" && cfg.AccountEmail != "" {
		if err := store.SetAccountEmail(cfg.AccountEmail); err != nil {
			_ = fileStore.Close()
			return nil, err
		}
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		_ = fileStore.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	locator := discovery.NewLocator(discovery.NewSystemInspector())
	fetcher := telemetry.NewFetcher(locator, discovery.NewProber(), store.AccountEmail())

	m := &Manager{
		poller:       fetcher,
		store:        store,
		fileStore:    fileStore,
		database:     database,
		dashboardURL: cfg.DashboardURL,
		pollInterval: cfg.PollInterval,
		stopChan:     make(chan struct{}),
		prevPercents: make(map[string]int),
	}

	m.bridge, err = bridge.NewServer(m, cfg.BridgePort)
	if err != nil {
		_ = database.Close()
		_ = fileStore.Close()
		return nil, err
	}

	fileStore.OnChange(m.handleStoreChange)

	return m, nil
}

// Start launches the bridge server and the polling loop.
func (m *Manager) Start() {
	m.bridge.Start()
	go m.pollLoop()
}

// pollLoop runs a full acquisition cycle on a fixed interval.
func (m *Manager) pollLoop() {
	// First cycle immediately, then on the ticker.
	m.Poll()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Poll()
		case <-m.stopChan:
			return
		}
	}
}

// Poll runs one acquisition cycle: fetch a snapshot, reconcile it into
// account state, record it, and notify subscribers. It also serves as
// the bridge's poller, so dashboard requests drive the same path.
func (m *Manager) Poll() models.Snapshot {
	snap := m.poller.Poll()

	change, err := m.store.Ingest(snap)
	if err != nil {
		logger.Error("snapshot ingest failed", "error", err)
		m.broadcast(ErrorEvent{Service: "sync", Error: err})
		return snap
	}

	if m.database != nil {
		if err := m.database.RecordSnapshot(context.Background(), snap); err != nil {
			logger.Warn("failed to record snapshot", "error", err)
		}
	}

	m.checkNotifications(snap)

	m.broadcast(SnapshotIngestedEvent{Snapshot: snap, Change: change})
	if change == sync.ChangeStructural {
		m.broadcast(AccountsChangedEvent{Accounts: m.store.Accounts()})
	}

	return snap
}

// checkNotifications raises desktop notifications when a model quota
// runs out or refreshes. Keyed per email and model so multiple
// accounts don't mask each other.
func (m *Manager) checkNotifications(snap models.Snapshot) {
	if snap.Degraded {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, q := range snap.Models {
		key := snap.Email + "/" + q.Name
		prev, seen := m.prevPercents[key]
		m.prevPercents[key] = q.Percentage

		if !seen {
			continue
		}

		if q.Percentage < 5 && prev >= 5 {
			title := fmt.Sprintf("Quota Low: %s", q.Name)
			body := fmt.Sprintf("%s has %d%% remaining", snap.Email, q.Percentage)
			_ = beeep.Notify(title, body, "")
		}

		// A jump of more than 20 points means the quota window reset.
		if q.Percentage-prev > 20 {
			title := fmt.Sprintf("Quota Reset: %s", q.Name)
			_ = beeep.Notify(title, "Your quota has been refreshed.", "")
		}
	}
}

// handleStoreChange reacts to external edits of the store file.
func (m *Manager) handleStoreChange() {
	if err := m.store.Reload(); err != nil {
		logger.Error("failed to reload account state", "error", err)
		m.broadcast(ErrorEvent{Service: "store", Error: err})
		return
	}
	m.poller.SetEmail(m.store.AccountEmail())
	m.broadcast(AccountsChangedEvent{Accounts: m.store.Accounts()})
}

// Accounts returns the current reconciled accounts.
func (m *Manager) Accounts() []models.Account {
	return m.store.Accounts()
}

// AccountEmail returns the configured identity email.
func (m *Manager) AccountEmail() string {
	return m.store.AccountEmail()
}

// SetAccountEmail persists a new identity email and applies it to
// subsequent snapshots.
func (m *Manager) SetAccountEmail(email string) error {
	if err := m.store.SetAccountEmail(email); err != nil {
		return err
	}
	m.poller.SetEmail(email)
	m.broadcast(AccountsChangedEvent{Accounts: m.store.Accounts()})
	return nil
}

// DeleteAccount removes an account and notifies subscribers.
func (m *Manager) DeleteAccount(id string) error {
	if err := m.store.DeleteAccount(id); err != nil {
		return err
	}
	m.broadcast(AccountsChangedEvent{Accounts: m.store.Accounts()})
	return nil
}

// DashboardURL returns the external dashboard address.
func (m *Manager) DashboardURL() string {
	return m.dashboardURL
}

// BridgeAddr returns the bridge's bound address.
func (m *Manager) BridgeAddr() string {
	return m.bridge.Addr()
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Channel full, drop oldest
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- event:
			default:
			}
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close shuts down all services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.bridge != nil {
		if err := m.bridge.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.fileStore != nil {
		if err := m.fileStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
