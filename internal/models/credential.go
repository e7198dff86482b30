// Package models defines data structures and domain types.
package models

// Credential is the result of one process-discovery pass: the access
// token extracted from a matching server process plus the ports it is
// listening on, in discovery order. It lives for a single pass and is
// never persisted.
type Credential struct {
	PID            int32
	Token          string
	CandidatePorts []int
}

// Endpoint identifies the live RPC port confirmed by probing. It is
// cached across polling cycles by the fetcher and invalidated when a
// fetch through it fails.
type Endpoint struct {
	Host  string
	Port  int
	Token string
}
