package client

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// maxDoQResponseSize bounds the whole-stream read used to detect and
// tolerate upstreams that omit the RFC 9250 §4.2 length prefix.
const maxDoQResponseSize = 65537

// doqALPN is the RFC 9250 §4.1.1 required ALPN token.
const doqALPN = "doq"

// DoQClient queries a single upstream over DNS-over-QUIC (RFC 9250),
// opening a new QUIC connection per query, no persistent pool,
// mirroring the UDP/DoT clients' per-query dial.
type DoQClient struct {
	addr       string
	serverName string
	timeout    time.Duration
}

// NewDoQClient constructs a DoQClient against cfg.Address, applying
// cfg.DefaultPort when the address carries no explicit port. If
// cfg.ServerName is empty, the resolved address's host is used as the
// TLS SNI.
func NewDoQClient(cfg Config) *DoQClient {
	addr := normalizeAddress(cfg.Address, cfg.DefaultPort)
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = addressHost(addr)
	}
	return &DoQClient{addr: addr, serverName: serverName, timeout: cfg.Timeout}
}

// tlsConfig bypasses certificate verification when the target is a
// literal IP, since a CA-issued cert naming an IP SAN is uncommon for
// ad hoc upstream entries; the literal itself is still sent as SNI.
func (c *DoQClient) tlsConfig() *tls.Config {
	cfg := &tls.Config{ServerName: c.serverName, NextProtos: []string{doqALPN}, MinVersion: tls.VersionTLS13}
	if net.ParseIP(c.serverName) != nil {
		cfg.InsecureSkipVerify = true
	}
	return cfg
}

// dial opens a fresh UDP socket and QUIC connection to the upstream.
// Unlike a pooled resolver, the socket and connection are both
// single-use and torn down after the query completes.
func (c *DoQClient) dial(ctx context.Context) (*quic.Conn, error) {
	rAddr, err := net.ResolveUDPAddr("udp", c.addr)
	if err != nil {
		return nil, err
	}
	udpConn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	transport := &quic.Transport{Conn: udpConn}
	conn, err := transport.Dial(ctx, rAddr, c.tlsConfig(), nil)
	if err != nil {
		udpConn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *DoQClient) Query(ctx context.Context, req []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, wrapf("doq", err)
	}
	defer conn.CloseWithError(0, "")

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, wrapf("doq", err)
	}
	defer stream.Close()

	// RFC 9250 §4.2.1: the DNS message ID MUST be 0 on the wire.
	wireReq, err := zeroedID(req)
	if err != nil {
		return nil, wrapf("doq", err)
	}

	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(wireReq)))
	if _, err := stream.Write(prefix[:]); err != nil {
		return nil, wrapf("doq", err)
	}
	if _, err := stream.Write(wireReq); err != nil {
		return nil, wrapf("doq", err)
	}
	if err := stream.Close(); err != nil { // signal end of request per RFC 9250 §4.2
		return nil, wrapf("doq", err)
	}

	return readDoQResponse(stream)
}

// readDoQResponse reads the full stream, then interprets it as a
// length-prefixed response if the first two bytes are a length that
// exactly accounts for the remaining bytes; otherwise it falls back to
// treating the whole stream as the message, for upstreams that omit the
// RFC 9250 §4.2 prefix.
func readDoQResponse(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDoQResponseSize))
	if err != nil {
		return nil, wrapf("doq", err)
	}
	if len(data) == 0 {
		return nil, wrapf("doq", io.ErrUnexpectedEOF)
	}
	if len(data) >= 2 {
		if respLen := int(binary.BigEndian.Uint16(data[0:2])); respLen == len(data)-2 {
			return data[2:], nil
		}
	}
	return data, nil
}

// zeroedID returns a copy of msg with its 2-byte wire ID field set to 0.
func zeroedID(msg []byte) ([]byte, error) {
	if len(msg) < 2 {
		return nil, io.ErrShortBuffer
	}
	out := make([]byte, len(msg))
	copy(out, msg)
	out[0], out[1] = 0, 0
	return out, nil
}

func (c *DoQClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	conn, err := c.dial(ctx)
	if err != nil {
		return wrapf("doq", err)
	}
	return conn.CloseWithError(0, "")
}

func (c *DoQClient) Describe() string {
	return "doq://" + c.addr
}
