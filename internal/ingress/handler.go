// Package ingress implements the per-protocol DNS server tasks: UDP,
// DNS-over-TLS, DNS-over-HTTPS, and DNS-over-QUIC listeners that all
// funnel into the same decode→resolve→encode handler.
package ingress

import (
	"context"
	"log/slog"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/resolver"
)

// Handler decodes a raw wire request, resolves it, and re-encodes the
// answer. It is shared by every protocol listener.
type Handler struct {
	Logger   *slog.Logger
	Resolver *resolver.Resolver
}

// Handle processes a single request for the given transport/client and
// returns wire bytes ready to send, or nil if nothing should be sent.
// Handle writes nothing itself: each listener sends the returned bytes,
// and a failed write drops the response with no retry and is not
// logged. A request that cannot be decoded is answered with ServFail,
// carrying its id when the header can be read and id 0 otherwise.
func (h *Handler) Handle(ctx context.Context, transport, clientIP string, reqBytes []byte) []byte {
	q, err := dnswire.DecodeQuery(reqBytes)
	if err != nil {
		return buildErrorFromRaw(reqBytes, dnswire.ServFail)
	}

	resp, meta, err := h.Resolver.ResolveWithClient(ctx, q, clientIP)
	if err != nil {
		h.logDebug(ctx, transport, clientIP, q, "servfail", err)
		errResp := dnswire.BuildErrorResponse(q.ID, dnswire.ServFail)
		out, encErr := dnswire.EncodeResponse(errResp, q)
		if encErr != nil {
			return nil
		}
		return out
	}

	out, err := dnswire.EncodeResponse(resp, q)
	if err != nil {
		h.logDebug(ctx, transport, clientIP, q, "encode-error", err)
		return nil
	}
	h.logDebug(ctx, transport, clientIP, q, sourceLabel(meta), nil)
	return out
}

func sourceLabel(meta resolver.Metadata) string {
	switch {
	case meta.RewriteApplied:
		return "rewrite"
	case meta.CacheHit:
		return "cache"
	case meta.UpstreamUsed != "":
		return "upstream"
	default:
		return "local"
	}
}

func (h *Handler) logDebug(ctx context.Context, transport, clientIP string, q dnswire.Query, source string, err error) {
	if h.Logger == nil || !h.Logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	args := []any{
		"transport", transport,
		"src", clientIP,
		"id", int(q.ID),
		"qname", q.Name,
		"qtype", q.Type.String(),
		"source", source,
	}
	if err != nil {
		args = append(args, "error", err)
	}
	h.Logger.DebugContext(ctx, "dns request", args...)
}

// buildErrorFromRaw attempts to construct a minimal error response from
// an unparseable request, recovering at least the transaction id when
// possible.
func buildErrorFromRaw(reqBytes []byte, rcode dnswire.RCode) []byte {
	off := 0
	h, err := dnswire.ParseHeader(reqBytes, &off)
	if err != nil {
		resp := dnswire.BuildErrorResponse(0, rcode)
		out, encErr := dnswire.EncodeResponse(resp, dnswire.Query{ID: 0})
		if encErr != nil {
			return nil
		}
		return out
	}
	resp := dnswire.BuildErrorResponse(h.ID, rcode)
	out, encErr := dnswire.EncodeResponse(resp, dnswire.Query{ID: h.ID})
	if encErr != nil {
		return nil
	}
	return out
}
