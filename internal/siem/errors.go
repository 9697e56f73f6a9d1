package siem

import "fmt"

// APIError means the upstream SIEM answered with a non-2xx status.
// Distinct from ConnError so callers can decide whether a retry is useful.
type APIError struct {
	StatusCode int
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("siem api returned %d for %s", e.StatusCode, e.Path)
}

// ConnError means the upstream SIEM could not be reached at all
// (dial failure, timeout, TLS failure).
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("cannot connect to siem: %v", e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }
