// Package client implements the five upstream egress transports: plain
// UDP, DNS-over-TLS, DNS-over-HTTPS, DNS-over-QUIC, and DNS-over-HTTP/3.
// Every implementation exposes the same uniform {query, health_check,
// describe} capability so the upstream pool and query strategies can
// treat them interchangeably.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrUpstream is the sentinel wrapped by every client-side failure: dial
// errors, timeouts, and malformed responses all surface through it so
// callers can use errors.Is without caring which transport failed.
var ErrUpstream = errors.New("upstream query failed")

// Client is the uniform capability every transport implements.
type Client interface {
	// Query sends the already wire-encoded req and returns the raw
	// wire-encoded response. Implementations do not parse req or the
	// response; encoding/decoding is the resolver's job.
	Query(ctx context.Context, req []byte) ([]byte, error)

	// HealthCheck performs a cheap liveness probe distinct from Query:
	// it only checks that the transport can be reached (a dial, a TLS or
	// QUIC handshake, or a plain HTTP GET, depending on the transport).
	// No DNS query is sent.
	HealthCheck(ctx context.Context) error

	// Describe returns a short human-readable identifier for logs,
	// e.g. "udp://1.1.1.1:53".
	Describe() string
}

// Config carries the per-server dial parameters common to all
// transports. Individual clients pull only the fields they need.
type Config struct {
	Address     string // host, host:port, or URL depending on protocol
	ServerName  string // TLS SNI override; defaults to the address host
	Timeout     time.Duration
	DefaultPort int // applied to Address when it carries no explicit port
}

// wrapf wraps err with ErrUpstream and a transport-specific message.
func wrapf(transport string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrUpstream, transport, err)
}

// normalizeAddress resolves a stored upstream address into a dialable
// host:port pair. An address that already carries an explicit port
// (including bracketed IPv6, e.g. "[2001:db8::1]:853") is returned
// unchanged; otherwise defaultPort is appended, bracketing a bare IPv6
// literal host in the process.
func normalizeAddress(address string, defaultPort int) string {
	if _, port, err := net.SplitHostPort(address); err == nil && port != "" {
		return address
	}
	host := strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(defaultPort))
}

// addressHost extracts the bare host from a normalized host:port
// address, bracket-stripped for IPv6.
func addressHost(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}

// buildDoHURL resolves a stored DoH/DoH3 address into a request URL. An
// address that already carries a scheme is used verbatim; otherwise it
// is normalized to host:port (applying defaultPort) and the standard
// "/dns-query" path is appended.
func buildDoHURL(address string, defaultPort int) string {
	if strings.Contains(address, "://") {
		return address
	}
	return "https://" + normalizeAddress(address, defaultPort) + "/dns-query"
}
