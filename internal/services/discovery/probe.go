package discovery

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/may1350/vibelens/internal/models"
)

// StatusPath is the Connect-RPC route that answers quota telemetry.
const StatusPath = "/exa.language_server_pb.LanguageServerService/GetUserStatus"

// StatusRequestBody identifies us to the language server. The server
// rejects requests without IDE metadata.
const StatusRequestBody = `{"metadata":{"ideName":"antigravity","extensionName":"vibelens"}}`

const probeTimeout = 1 * time.Second

// Prober checks whether a candidate port answers the status endpoint.
type Prober struct {
	client *http.Client
}

// NewProber creates a Prober. The language server terminates TLS with
// a self-signed cert, so verification is disabled.
func NewProber() *Prober {
	return &Prober{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// SetStatusRequest applies the shared status-endpoint headers to req.
func SetStatusRequest(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Codeium-Csrf-Token", token)
	req.Header.Set("Connect-Protocol-Version", "1")
}

// Probe reports whether port answers GetUserStatus with a 200.
func (p *Prober) Probe(port int, token string) bool {
	url := fmt.Sprintf("https://127.0.0.1:%d%s", port, StatusPath)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(StatusRequestBody))
	if err != nil {
		return false
	}
	SetStatusRequest(req, token)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// FindLiveEndpoint probes the credential's candidate ports in order
// and returns the first one that answers, or nil when none do.
func (p *Prober) FindLiveEndpoint(cred *models.Credential) *models.Endpoint {
	if cred == nil {
		return nil
	}
	for _, port := range cred.CandidatePorts {
		if p.Probe(port, cred.Token) {
			return &models.Endpoint{
				Host:  "127.0.0.1",
				Port:  port,
				Token: cred.Token,
			}
		}
	}
	return nil
}
