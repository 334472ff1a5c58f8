package client

import (
	"context"
	"net"
	"time"
)

// udpRecvBufferSize is sized for plain (non-EDNS) UDP responses.
const udpRecvBufferSize = 4096

// UDPClient queries a single upstream over plain UDP, dialing a fresh
// ephemeral socket per query; no persistent connection pool.
type UDPClient struct {
	addr    string
	timeout time.Duration
}

// NewUDPClient constructs a UDPClient for cfg.Address, applying
// cfg.DefaultPort when the address carries no explicit port.
func NewUDPClient(cfg Config) *UDPClient {
	return &UDPClient{addr: normalizeAddress(cfg.Address, cfg.DefaultPort), timeout: cfg.Timeout}
}

func (c *UDPClient) Query(ctx context.Context, req []byte) ([]byte, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return nil, wrapf("udp", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, wrapf("udp", err)
	}

	if _, err := conn.Write(req); err != nil {
		return nil, wrapf("udp", err)
	}

	buf := make([]byte, udpRecvBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, wrapf("udp", err)
	}
	return buf[:n:n], nil
}

func (c *UDPClient) HealthCheck(ctx context.Context) error {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return wrapf("udp", err)
	}
	return conn.Close()
}

func (c *UDPClient) Describe() string {
	return "udp://" + c.addr
}
