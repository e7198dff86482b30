package discovery

import (
	"errors"
	"regexp"

	"github.com/may1350/vibelens/internal/logger"
	"github.com/may1350/vibelens/internal/models"
)

// processPattern matches the Antigravity/Codeium language server binary.
const processPattern = "language_server"

// csrfTokenRe extracts the token from either "--csrf_token=TOKEN" or
// "--csrf_token TOKEN" command-line forms.
var csrfTokenRe = regexp.MustCompile(`--csrf_token[=\s]+([a-zA-Z0-9-]+)`)

// ErrServerNotFound is returned when no token-bearing language server
// process is running.
var ErrServerNotFound = errors.New("no language server process with a csrf token found")

// Locator finds the language server process and its credential.
type Locator struct {
	inspector ProcessInspector
}

// NewLocator creates a Locator backed by the given inspector.
func NewLocator(inspector ProcessInspector) *Locator {
	return &Locator{inspector: inspector}
}

// Locate scans for the language server and returns its PID, CSRF token
// and the ports the process is listening on. The first process whose
// command line carries a token wins.
func (l *Locator) Locate() (*models.Credential, error) {
	procs, err := l.inspector.ListMatchingProcesses(processPattern)
	if err != nil {
		return nil, err
	}

	for _, p := range procs {
		m := csrfTokenRe.FindStringSubmatch(p.CommandLine)
		if m == nil {
			continue
		}

		ports, err := l.inspector.ListListeningPorts(p.PID)
		if err != nil {
			logger.Warn("failed to enumerate ports", "pid", p.PID, "error", err)
			ports = nil
		}

		return &models.Credential{
			PID:            p.PID,
			Token:          m[1],
			CandidatePorts: ports,
		}, nil
	}

	return nil, ErrServerNotFound
}
