package crm

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUpstream      = errors.New("crm upstream error")
	ErrTransport     = errors.New("crm transport error")
	ErrNotConfigured = errors.New("crm not configured")
	ErrNoID          = errors.New("crm response carried no id")
)

// UpstreamError is a non-2xx answer from the CRM. Body is kept verbatim.
type UpstreamError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pipedrive %s %s -> %d %s", e.Method, e.Path, e.Status, e.Body)
}

// Is matches ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// TransportError wraps a failure to reach the CRM at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pipedrive %s %s: %v", e.Method, e.Path, e.Err)
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }
