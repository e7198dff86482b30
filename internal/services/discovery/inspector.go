// Package discovery locates the running Antigravity language server,
// extracts its CSRF token from the command line, and probes candidate
// ports until one answers the status endpoint.
package discovery

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo describes one observed process.
type ProcessInfo struct {
	PID         int32
	CommandLine string
}

// ProcessInspector abstracts process enumeration so tests can supply a
// fake system. SystemInspector is the real implementation.
type ProcessInspector interface {
	// ListMatchingProcesses returns processes whose command line
	// contains pattern.
	ListMatchingProcesses(pattern string) ([]ProcessInfo, error)
	// ListListeningPorts returns the TCP ports pid is listening on.
	ListListeningPorts(pid int32) ([]int, error)
}

// SystemInspector inspects the live system via gopsutil.
type SystemInspector struct{}

// NewSystemInspector creates a SystemInspector.
func NewSystemInspector() *SystemInspector {
	return &SystemInspector{}
}

// ListMatchingProcesses scans all processes for a command line
// containing pattern.
func (s *SystemInspector) ListMatchingProcesses(pattern string) ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var matches []ProcessInfo
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil {
			// Processes can exit mid-scan or deny access; skip them.
			continue
		}
		if cmdline == "" || !strings.Contains(cmdline, pattern) {
			continue
		}
		matches = append(matches, ProcessInfo{PID: p.Pid, CommandLine: cmdline})
	}
	return matches, nil
}

// ListListeningPorts returns the TCP listen ports held by pid.
func (s *SystemInspector) ListListeningPorts(pid int32) ([]int, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	conns, err := p.Connections()
	if err != nil {
		return nil, fmt.Errorf("failed to list connections for %d: %w", pid, err)
	}

	seen := make(map[int]bool)
	var ports []int
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		port := int(c.Laddr.Port)
		if port == 0 || seen[port] {
			continue
		}
		seen[port] = true
		ports = append(ports, port)
	}
	return ports, nil
}
