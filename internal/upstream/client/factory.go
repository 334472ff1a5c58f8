package client

import (
	"fmt"
	"time"
)

// Protocol mirrors upstream.Protocol's five values without importing
// the upstream package, keeping client protocol-agnostic at the type
// level and avoiding an import cycle (upstream depends on pool state
// that client has no business seeing).
type Protocol string

const (
	ProtoUDP  Protocol = "udp"
	ProtoDoT  Protocol = "dot"
	ProtoDoH  Protocol = "doh"
	ProtoDoQ  Protocol = "doq"
	ProtoDoH3 Protocol = "doh3"
)

// New builds the Client implementation for protocol. defaultPort is
// applied to address when it carries no explicit port of its own
// (strategy.Dial supplies this from upstream.Protocol.DefaultPort()).
func New(protocol Protocol, address string, timeout time.Duration, defaultPort int) (Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cfg := Config{Address: address, Timeout: timeout, DefaultPort: defaultPort}
	switch protocol {
	case ProtoUDP:
		return NewUDPClient(cfg), nil
	case ProtoDoT:
		return NewDoTClient(cfg), nil
	case ProtoDoH:
		return NewDoHClient(cfg), nil
	case ProtoDoQ:
		return NewDoQClient(cfg), nil
	case ProtoDoH3:
		return NewDoh3Client(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", ErrUpstream, protocol)
	}
}
