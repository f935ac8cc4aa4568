package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind classifies a NetworkError.
type Kind string

const (
	KindDNS     Kind = "dns"
	KindRefused Kind = "refused"
	KindTimeout Kind = "timeout"
	KindStatus  Kind = "status"
	KindBlocked Kind = "blocked"
	KindOther   Kind = "other"
)

// NetworkError is the only error type Fetch returns.
type NetworkError struct {
	URL    string
	Kind   Kind
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsNetworkError returns the *NetworkError in err's chain, if any.
func AsNetworkError(err error) (*NetworkError, bool) {
	var ne *NetworkError
	ok := errors.As(err, &ne)
	return ne, ok
}

func classify(rawURL string, err error) *NetworkError {
	if ne, ok := AsNetworkError(err); ok {
		return ne
	}
	kind := KindOther
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		kind = KindDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindRefused
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case strings.Contains(strings.ToLower(err.Error()), "no such host"):
		kind = KindDNS
	}
	return &NetworkError{URL: rawURL, Kind: kind, Err: err}
}
