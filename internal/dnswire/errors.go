// Package dnswire parses and encodes DNS wire-format messages and maps
// FluxDNS's record-type and response-code enums to and from wire form.
//
// Standards covered: RFC 1035 (core message format), RFC 3596 (AAAA),
// RFC 6891 (OPT/EDNS, pseudo-section only — no option parsing), RFC 2181
// §9 (SRV).
package dnswire

import "errors"

// ErrWire is the sentinel for all wire-format violations. Wrap it with
// fmt.Errorf("...: %w", ErrWire) to add context.
var ErrWire = errors.New("dns wire error")

// ErrEncode is the sentinel for encode-side failures, kept distinct from
// ErrWire so callers can tell a malformed outbound message (programmer
// error, or a record that can't be represented) from a malformed inbound
// one (hostile or buggy peer).
var ErrEncode = errors.New("dns wire encode error")
