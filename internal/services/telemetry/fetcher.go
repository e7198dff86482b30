// Package telemetry polls quota telemetry from the discovered language
// server endpoint and normalizes it into snapshots.
package telemetry

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
	"github.com/may1350/vibelens/internal/services/discovery"
)

const fetchTimeout = 3 * time.Second

// fetchRequestBody asks for the full user status. The locale matters:
// without it the server localizes plan names unpredictably.
const fetchRequestBody = `{"metadata":{"ideName":"antigravity","extensionName":"antigravity","locale":"en"}}`

// rediscoverChance is the per-cycle probability of re-running
// discovery even while the cached endpoint still works, so a server
// restart on a different port is eventually noticed.
const rediscoverChance = 0.1

// defaultMonthlyCredits is assumed when the plan omits its allotment.
const defaultMonthlyCredits = 50000

// DegradedModelName labels the placeholder shown while no live
// endpoint is reachable.
const DegradedModelName = "Antigravity Sync"

// Locator yields the language server credential.
type Locator interface {
	Locate() (*models.Credential, error)
}

// EndpointFinder probes credential ports for the live RPC endpoint.
type EndpointFinder interface {
	FindLiveEndpoint(cred *models.Credential) *models.Endpoint
}

// DiscoveryState is the fetcher-owned endpoint cache. It is explicit
// state rather than a package global so each Fetcher carries its own
// view of where the server lives.
type DiscoveryState struct {
	mu       sync.Mutex
	endpoint *models.Endpoint
}

// Endpoint returns the cached endpoint, nil when unknown.
func (s *DiscoveryState) Endpoint() *models.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// SetEndpoint replaces the cached endpoint.
func (s *DiscoveryState) SetEndpoint(ep *models.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = ep
}

// Invalidate clears the cache, forcing rediscovery on the next poll.
func (s *DiscoveryState) Invalidate() {
	s.SetEndpoint(nil)
}

// Fetcher polls GetUserStatus and turns the response into snapshots.
type Fetcher struct {
	locator  Locator
	finder   EndpointFinder
	client   *http.Client
	state    DiscoveryState
	emailMu  sync.RWMutex
	email    string
	redetect func() bool
	now      func() time.Time
}

// NewFetcher creates a Fetcher. email is the configured account
// identity stamped on every snapshot; empty means not logged in.
func NewFetcher(locator Locator, finder EndpointFinder, email string) *Fetcher {
	return &Fetcher{
		locator: locator,
		finder:  finder,
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		email:    email,
		redetect: func() bool { return rand.Float64() < rediscoverChance },
		now:      time.Now,
	}
}

// SetEmail updates the account identity stamped on snapshots.
func (f *Fetcher) SetEmail(email string) {
	f.emailMu.Lock()
	defer f.emailMu.Unlock()
	f.email = email
}

// Poll captures the current quota state. It never returns an error:
// any discovery or fetch failure yields a degraded snapshot and
// invalidates the cached endpoint so the next cycle rediscovers.
func (f *Fetcher) Poll() models.Snapshot {
	ep := f.state.Endpoint()
	if ep == nil || f.redetect() {
		if found := f.discover(); found != nil {
			ep = found
			f.state.SetEndpoint(found)
		}
	}

	if ep == nil {
		return f.degradedSnapshot()
	}

	snap, err := f.fetch(ep)
	if err != nil {
		logger.Warn("quota fetch failed", "port", ep.Port, "error", err)
		f.state.Invalidate()
		return f.degradedSnapshot()
	}
	return snap
}

func (f *Fetcher) discover() *models.Endpoint {
	cred, err := f.locator.Locate()
	if err != nil {
		logger.Debug("language server discovery failed", "error", err)
		return nil
	}
	return f.finder.FindLiveEndpoint(cred)
}

// userStatusResponse mirrors the subset of the GetUserStatus payload
// the pipeline consumes.
type userStatusResponse struct {
	UserStatus struct {
		PlanStatus struct {
			PlanInfo struct {
				MonthlyPromptCredits int `json:"monthlyPromptCredits"`
			} `json:"planInfo"`
			AvailablePromptCredits int `json:"availablePromptCredits"`
		} `json:"planStatus"`
		CascadeModelConfigData struct {
			ClientModelConfigs []clientModelConfig `json:"clientModelConfigs"`
		} `json:"cascadeModelConfigData"`
	} `json:"userStatus"`
}

type clientModelConfig struct {
	Label        string `json:"label"`
	ModelOrAlias struct {
		Model string `json:"model"`
	} `json:"modelOrAlias"`
	QuotaInfo *struct {
		ResetTime         string  `json:"resetTime"`
		RemainingFraction float64 `json:"remainingFraction"`
	} `json:"quotaInfo"`
}

func (f *Fetcher) fetch(ep *models.Endpoint) (models.Snapshot, error) {
	url := fmt.Sprintf("https://%s:%d%s", ep.Host, ep.Port, discovery.StatusPath)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(fetchRequestBody))
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to build status request: %w", err)
	}
	discovery.SetStatusRequest(req, ep.Token)

	resp, err := f.client.Do(req)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Snapshot{}, fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read status response: %w", err)
	}

	var parsed userStatusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse status response: %w", err)
	}

	return f.buildSnapshot(&parsed), nil
}

func (f *Fetcher) buildSnapshot(parsed *userStatusResponse) models.Snapshot {
	now := f.now()
	status := parsed.UserStatus

	monthly := status.PlanStatus.PlanInfo.MonthlyPromptCredits
	if monthly == 0 {
		monthly = defaultMonthlyCredits
	}
	dailyUsage := monthly - status.PlanStatus.AvailablePromptCredits

	var quotas []models.ModelQuota
	for _, cfg := range status.CascadeModelConfigData.ClientModelConfigs {
		if cfg.QuotaInfo == nil {
			continue
		}

		name := cfg.Label
		if name == "" {
			name = cfg.ModelOrAlias.Model
		}
		if name == "" {
			name = "AI Model"
		}

		var resetAt int64
		if t, err := time.Parse(time.RFC3339, cfg.QuotaInfo.ResetTime); err == nil {
			resetAt = t.UnixMilli()
		}

		pct := models.PercentFromFraction(cfg.QuotaInfo.RemainingFraction)
		q := models.ModelQuota{
			Name:       name,
			Percentage: pct,
			Status:     models.StatusForPercent(pct),
			ResetAt:    resetAt,
		}
		if !q.IsFull() {
			q.ResetIn = models.FormatCountdown(resetAt, now)
		}
		quotas = append(quotas, q)
	}

	if len(quotas) == 0 {
		return f.degradedSnapshot()
	}

	models.SortModelQuotas(quotas)

	return models.Snapshot{
		Email:      f.snapshotEmail(),
		Timestamp:  now.UnixMilli(),
		DailyUsage: dailyUsage,
		Models:     quotas,
	}
}

// degradedSnapshot is what consumers see while no endpoint answers:
// a single placeholder model counting down to the next UTC midnight.
func (f *Fetcher) degradedSnapshot() models.Snapshot {
	now := f.now()
	reset := models.NextUTCMidnight(now)

	return models.Snapshot{
		Email:     f.snapshotEmail(),
		Timestamp: now.UnixMilli(),
		Models: []models.ModelQuota{{
			Name:       DegradedModelName,
			Percentage: 0,
			Status:     "Connecting...",
			ResetIn:    models.FormatCountdown(reset, now),
		}},
		Degraded: true,
	}
}

func (f *Fetcher) snapshotEmail() string {
	f.emailMu.RLock()
	defer f.emailMu.RUnlock()
	if f.email == "" {
		return "Login Required"
	}
	return f.email
}
