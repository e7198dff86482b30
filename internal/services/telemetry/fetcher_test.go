package telemetry

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/may1350/vibelens/internal/models"
)

type fakeLocator struct {
	cred  *models.Credential
	err   error
	calls int
}

func (f *fakeLocator) Locate() (*models.Credential, error) {
	f.calls++
	return f.cred, f.err
}

type fakeFinder struct {
	ep *models.Endpoint
}

func (f *fakeFinder) FindLiveEndpoint(cred *models.Credential) *models.Endpoint {
	return f.ep
}

const statusResponse = `{
  "userStatus": {
    "planStatus": {
      "planInfo": {"monthlyPromptCredits": 60000},
      "availablePromptCredits": 58800
    },
    "cascadeModelConfigData": {
      "clientModelConfigs": [
        {
          "label": "Fast Model",
          "quotaInfo": {"resetTime": "2026-03-01T12:00:00Z", "remainingFraction": 0.42}
        },
        {
          "modelOrAlias": {"model": "slow-model-v2"},
          "quotaInfo": {"resetTime": "2026-03-01T06:00:00Z", "remainingFraction": 1.0}
        },
        {
          "label": "No Quota Model"
        }
      ]
    }
  }
}`

// testEndpoint points a fetcher at an httptest TLS server.
func testEndpoint(t *testing.T, srv *httptest.Server, token string) *models.Endpoint {
	t.Helper()
	addr := srv.Listener.Addr().(*net.TCPAddr)
	return &models.Endpoint{Host: "127.0.0.1", Port: addr.Port, Token: token}
}

func newTestFetcher(srv *httptest.Server, email string) *Fetcher {
	f := NewFetcher(&fakeLocator{}, &fakeFinder{}, email)
	f.client = srv.Client()
	f.redetect = func() bool { return false }
	f.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestPollParsesStatus(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Codeium-Csrf-Token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(statusResponse))
	}))
	defer srv.Close()

	f := newTestFetcher(srv, "dev@example.com")
	f.state.SetEndpoint(testEndpoint(t, srv, "tok"))

	snap := f.Poll()
	if snap.Degraded {
		t.Fatal("Poll() returned degraded snapshot")
	}
	if snap.Email != "dev@example.com" {
		t.Errorf("Email = %q, want %q", snap.Email, "dev@example.com")
	}
	if snap.DailyUsage != 1200 {
		t.Errorf("DailyUsage = %d, want 1200", snap.DailyUsage)
	}

	// The model without quotaInfo is dropped; the non-full model
	// sorts before the full one.
	if len(snap.Models) != 2 {
		t.Fatalf("len(Models) = %d, want 2", len(snap.Models))
	}
	first := snap.Models[0]
	if first.Name != "Fast Model" {
		t.Errorf("Models[0].Name = %q, want %q", first.Name, "Fast Model")
	}
	if first.Percentage != 42 {
		t.Errorf("Percentage = %d, want 42", first.Percentage)
	}
	if first.Status != "42% Left" {
		t.Errorf("Status = %q, want %q", first.Status, "42% Left")
	}
	if first.ResetIn != "12:00:00" {
		t.Errorf("ResetIn = %q, want %q", first.ResetIn, "12:00:00")
	}

	second := snap.Models[1]
	if second.Name != "slow-model-v2" {
		t.Errorf("Models[1].Name = %q, want %q", second.Name, "slow-model-v2")
	}
	if second.Status != "Full" {
		t.Errorf("Models[1].Status = %q, want %q", second.Status, "Full")
	}
	if second.ResetIn != "" {
		t.Errorf("full model ResetIn = %q, want empty", second.ResetIn)
	}
}

func TestPollDefaultsMonthlyCredits(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
  "userStatus": {
    "planStatus": {"availablePromptCredits": 49000},
    "cascadeModelConfigData": {
      "clientModelConfigs": [
        {"label": "M", "quotaInfo": {"remainingFraction": 0.5}}
      ]
    }
  }
}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv, "")
	f.state.SetEndpoint(testEndpoint(t, srv, "tok"))

	snap := f.Poll()
	if snap.DailyUsage != 1000 {
		t.Errorf("DailyUsage = %d, want 1000 (50000 default - 49000)", snap.DailyUsage)
	}
	if snap.Email != "Login Required" {
		t.Errorf("Email = %q, want %q", snap.Email, "Login Required")
	}

	// No reset time: placeholder countdown.
	if snap.Models[0].ResetIn != "Calculating..." {
		t.Errorf("ResetIn = %q, want %q", snap.Models[0].ResetIn, "Calculating...")
	}
}

func TestPollDegradedWhenNoEndpoint(t *testing.T) {
	loc := &fakeLocator{err: errors.New("no process found")}
	f := NewFetcher(loc, &fakeFinder{}, "dev@example.com")
	f.redetect = func() bool { return false }
	f.now = func() time.Time { return time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC) }

	snap := f.Poll()
	if !snap.Degraded {
		t.Fatal("Poll() without endpoint should be degraded")
	}
	if len(snap.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(snap.Models))
	}
	m := snap.Models[0]
	if m.Name != DegradedModelName {
		t.Errorf("Name = %q, want %q", m.Name, DegradedModelName)
	}
	if m.Status != "Connecting..." {
		t.Errorf("Status = %q, want %q", m.Status, "Connecting...")
	}
	// 3 hours to next UTC midnight.
	if m.ResetIn != "03:00:00" {
		t.Errorf("ResetIn = %q, want %q", m.ResetIn, "03:00:00")
	}
	if snap.DailyUsage != 0 {
		t.Errorf("DailyUsage = %d, want 0", snap.DailyUsage)
	}
}

func TestPollInvalidatesEndpointOnFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(srv, "dev@example.com")
	f.state.SetEndpoint(testEndpoint(t, srv, "tok"))

	snap := f.Poll()
	if !snap.Degraded {
		t.Fatal("Poll() against failing server should be degraded")
	}
	if f.state.Endpoint() != nil {
		t.Error("failed fetch should invalidate the cached endpoint")
	}
}

func TestPollRedetectsWhenAsked(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statusResponse))
	}))
	defer srv.Close()

	ep := testEndpoint(t, srv, "tok")
	loc := &fakeLocator{cred: &models.Credential{Token: "tok"}}

	f := NewFetcher(loc, &fakeFinder{ep: ep}, "dev@example.com")
	f.client = srv.Client()
	f.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	f.redetect = func() bool { return true }
	f.state.SetEndpoint(ep)

	f.Poll()
	f.Poll()
	if loc.calls != 2 {
		t.Errorf("Locate called %d times, want 2 (redetect forced every cycle)", loc.calls)
	}
}
