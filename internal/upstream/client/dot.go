package client

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	"strings"
	"time"
)

// DoTClient queries a single upstream over DNS-over-TLS (RFC 7858),
// dialing a new TCP+TLS connection per query and framing the message
// with the standard 2-byte length prefix.
type DoTClient struct {
	addr       string
	serverName string
	timeout    time.Duration
}

// NewDoTClient constructs a DoTClient, applying cfg.DefaultPort when
// cfg.Address carries no explicit port. If cfg.ServerName is empty, the
// host portion of the resolved address is used as the TLS SNI.
func NewDoTClient(cfg Config) *DoTClient {
	addr := normalizeAddress(cfg.Address, cfg.DefaultPort)
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = addressHost(addr)
	}
	return &DoTClient{addr: addr, serverName: serverName, timeout: cfg.Timeout}
}

func (c *DoTClient) dial(ctx context.Context) (*tls.Conn, error) {
	d := tls.Dialer{
		Config: &tls.Config{ServerName: c.serverName, MinVersion: tls.VersionTLS12},
	}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}
	return conn.(*tls.Conn), nil
}

func (c *DoTClient) Query(ctx context.Context, req []byte) ([]byte, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, wrapf("dot", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, wrapf("dot", err)
	}

	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(req)))
	if _, err := conn.Write(prefix[:]); err != nil {
		return nil, wrapf("dot", err)
	}
	if _, err := conn.Write(req); err != nil {
		return nil, wrapf("dot", err)
	}

	if _, err := io.ReadFull(conn, prefix[:]); err != nil {
		return nil, wrapf("dot", err)
	}
	respLen := binary.BigEndian.Uint16(prefix[:])
	resp := make([]byte, respLen)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return nil, wrapf("dot", err)
	}
	return resp, nil
}

func (c *DoTClient) HealthCheck(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return wrapf("dot", err)
	}
	return conn.Close()
}

func (c *DoTClient) Describe() string {
	return "dot://" + strings.TrimSuffix(c.addr, ":853") + " (sni=" + c.serverName + ")"
}
