package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

// dohContentType is the RFC 8484 media type for wire-format DNS messages.
const dohContentType = "application/dns-message"

// DoHClient queries a single upstream over DNS-over-HTTPS (RFC 8484)
// using the POST method. It reuses a shared *http.Client so its
// connection pool (unlike the UDP/DoT/DoQ clients) persists across
// queries, per net/http's normal idle-connection reuse.
type DoHClient struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewDoHClient constructs a DoHClient against the DoH endpoint. cfg.Address
// is used verbatim if it already carries a scheme (e.g.
// "https://dns.example.test/dns-query"); otherwise it is treated as a
// bare host[:port] and resolved to "https://host:port/dns-query",
// applying cfg.DefaultPort when no port is present.
func NewDoHClient(cfg Config) *DoHClient {
	return &DoHClient{
		url:     buildDoHURL(cfg.Address, cfg.DefaultPort),
		timeout: cfg.Timeout,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *DoHClient) Query(ctx context.Context, req []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(req))
	if err != nil {
		return nil, wrapf("doh", err)
	}
	httpReq.Header.Set("Content-Type", dohContentType)
	httpReq.Header.Set("Accept", dohContentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, wrapf("doh", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapf("doh", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 65535))
	if err != nil {
		return nil, wrapf("doh", err)
	}
	return body, nil
}

// QueryGET issues the RFC 8484 GET variant, base64url-encoding req into
// the "dns" query parameter. Kept alongside POST for upstreams that
// prefer cacheable GET requests; Query (POST) is the default path.
func (c *DoHClient) QueryGET(ctx context.Context, req []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	encoded := base64.RawURLEncoding.EncodeToString(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?dns="+encoded, nil)
	if err != nil {
		return nil, wrapf("doh", err)
	}
	httpReq.Header.Set("Accept", dohContentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, wrapf("doh", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapf("doh", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 65535))
}

func (c *DoHClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return wrapf("doh", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return wrapf("doh", err)
	}
	defer resp.Body.Close()
	return nil
}

func (c *DoHClient) Describe() string {
	return "doh://" + c.url
}
