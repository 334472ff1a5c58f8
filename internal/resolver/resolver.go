// Package resolver implements the resolution pipeline:
// disabled record types, rewrite rules, local records, cache, and
// finally upstream dispatch, in that fixed order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fluxdns/fluxdns/internal/cache"
	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/rewrite"
	"github.com/fluxdns/fluxdns/internal/strategy"
)

// ErrMaxRewriteDepth is returned when a chain of MapToDomain rewrites
// recurses past maxRewriteDepth hops.
var ErrMaxRewriteDepth = errors.New("resolver: max rewrite depth exceeded")

// ErrNoHealthyUpstreams is returned when the strategy dispatcher has no
// candidate server to try.
var ErrNoHealthyUpstreams = errors.New("resolver: no healthy upstream servers")

// maxRewriteDepth bounds MapToDomain recursion.
const maxRewriteDepth = 10

// LocalRecord is a single row surfaced by the local-record stage. Name
// is the record's stored name (which may be a "*."-prefixed wildcard
// pattern); the resolver substitutes the queried name when answering.
type LocalRecord struct {
	Name     string
	Type     dnswire.RecordType
	Value    string
	TTL      uint32
	Priority uint16
}

// LocalRecordStore is the narrow slice of the repository the resolver
// needs: enabled records matching (name, type) with wildcard awareness
// already applied by the store.
type LocalRecordStore interface {
	MatchingRecords(ctx context.Context, name string, recordType dnswire.RecordType) ([]LocalRecord, error)
}

// DisabledTypes reports which record types the admin has currently
// disabled (stage 1, backed by system_config).
type DisabledTypes interface {
	IsDisabled(t dnswire.RecordType) bool
}

// QueryLogger receives a best-effort, non-blocking notification of
// every resolved query.
type QueryLogger interface {
	LogAsync(entry QueryLogEntry)
}

// QueryLogEntry is what ResolveWithClient schedules for async append.
type QueryLogEntry struct {
	ClientIP       string
	QueryName      string
	QueryType      dnswire.RecordType
	ResponseCode   string
	ResponseTimeMs int64
	CacheHit       bool
	UpstreamUsed   string
}

// Metadata accompanies every resolved answer.
type Metadata struct {
	ResponseTimeMs int64
	CacheHit       bool
	UpstreamUsed   string // empty when no upstream was consulted
	RewriteApplied bool
	RewriteRuleID  int64 // zero value when RewriteApplied is false
}

// Resolver ties the cache, rewrite engine, local-record store, and
// upstream dispatcher into the five-stage pipeline.
type Resolver struct {
	Cache          *cache.Cache
	Rewrite        *rewrite.Engine
	Records        LocalRecordStore
	Dispatcher     *strategy.Dispatcher
	DisabledTypes  DisabledTypes
	QueryLog       QueryLogger // optional; nil disables logging
}

// Resolve runs the five-stage pipeline for q and returns a response
// ready for EncodeResponse, plus metadata describing how it was
// produced.
func (r *Resolver) Resolve(ctx context.Context, q dnswire.Query) (dnswire.Response, Metadata, error) {
	start := time.Now()
	resp, meta, err := r.resolveDepth(ctx, q, 0)
	meta.ResponseTimeMs = time.Since(start).Milliseconds()
	return resp, meta, err
}

// ResolveWithClient wraps Resolve and schedules a best-effort async
// query-log append; the append never alters or delays the answer
//.
func (r *Resolver) ResolveWithClient(ctx context.Context, q dnswire.Query, clientIP string) (dnswire.Response, Metadata, error) {
	resp, meta, err := r.Resolve(ctx, q)
	if r.QueryLog != nil {
		entry := QueryLogEntry{
			ClientIP:       clientIP,
			QueryName:      q.Name,
			QueryType:      q.Type,
			ResponseTimeMs: meta.ResponseTimeMs,
			CacheHit:       meta.CacheHit,
			UpstreamUsed:   meta.UpstreamUsed,
		}
		if err != nil {
			entry.ResponseCode = "ERROR: " + err.Error()
		} else {
			entry.ResponseCode = resp.ResponseCode.String()
		}
		r.QueryLog.LogAsync(entry)
	}
	return resp, meta, err
}

func (r *Resolver) resolveDepth(ctx context.Context, q dnswire.Query, depth int) (dnswire.Response, Metadata, error) {
	if depth > maxRewriteDepth {
		return dnswire.Response{}, Metadata{}, ErrMaxRewriteDepth
	}

	name := dnswire.NormalizeName(q.Name)

	// Stage 1: disabled record types.
	if r.DisabledTypes != nil && r.DisabledTypes.IsDisabled(q.Type) {
		return dnswire.Response{ID: q.ID, ResponseCode: dnswire.NXDomain}, Metadata{}, nil
	}

	// Stage 2: rewrite check.
	if r.Rewrite != nil {
		if match, ok := r.Rewrite.Check(name); ok {
			return r.applyRewrite(ctx, q, depth, match)
		}
	}

	// Stage 3: local records.
	if r.Records != nil {
		recs, err := r.Records.MatchingRecords(ctx, name, q.Type)
		if err == nil && len(recs) > 0 {
			if resp, ok := buildLocalAnswer(q, name, recs); ok {
				return resp, Metadata{}, nil
			}
		}
	}

	// Stage 4: cache.
	if r.Cache != nil {
		key := cache.Key{Name: name, Type: q.Type}
		if cached, ok := r.Cache.Get(key); ok {
			cached.ID = q.ID
			return cached, Metadata{CacheHit: true}, nil
		}
	}

	// Stage 5: upstream.
	return r.resolveUpstream(ctx, q)
}

func (r *Resolver) applyRewrite(ctx context.Context, q dnswire.Query, depth int, match rewrite.Match) (dnswire.Response, Metadata, error) {
	meta := Metadata{RewriteApplied: true, RewriteRuleID: match.RuleID}

	switch match.Action.Kind {
	case rewrite.ActionBlock:
		return dnswire.Response{ID: q.ID, ResponseCode: dnswire.NXDomain}, meta, nil

	case rewrite.ActionMapToIP:
		rec, ok := ipAnswer(q, match.Action.IP)
		if !ok {
			return dnswire.Response{ID: q.ID, ResponseCode: dnswire.NoError}, meta, nil
		}
		return dnswire.Response{ID: q.ID, ResponseCode: dnswire.NoError, Answers: []dnswire.Record{rec}}, meta, nil

	case rewrite.ActionMapToDomain:
		targetQuery := dnswire.Query{ID: q.ID, Name: match.Action.Domain, Type: q.Type, RecursionDesired: q.RecursionDesired}
		resp, innerMeta, err := r.resolveDepth(ctx, targetQuery, depth+1)
		if err != nil {
			return dnswire.Response{}, meta, err
		}
		resp.ID = q.ID
		innerMeta.RewriteApplied = true
		innerMeta.RewriteRuleID = match.RuleID
		return resp, innerMeta, nil

	default:
		return dnswire.Response{ID: q.ID, ResponseCode: dnswire.ServFail}, meta, nil
	}
}

// ipAnswer synthesizes a single A/AAAA record iff ip's family matches
// q.Type. The second return is false when the families mismatch,
// signalling an empty-answer NoError.
func ipAnswer(q dnswire.Query, ip net.IP) (dnswire.Record, bool) {
	const mapToIPTTL = 300
	switch q.Type {
	case dnswire.TypeA:
		return dnswire.NewARecord(q.Name, mapToIPTTL, ip)
	case dnswire.TypeAAAA:
		return dnswire.NewAAAARecord(q.Name, mapToIPTTL, ip)
	default:
		return dnswire.Record{}, false
	}
}

// buildLocalAnswer synthesizes a response from the store's candidate
// records. Wildcard-pattern records ("*.base") answer with the queried
// name, never the stored pattern (stage 3, §8 S6).
func buildLocalAnswer(q dnswire.Query, name string, recs []LocalRecord) (dnswire.Response, bool) {
	answers := make([]dnswire.Record, 0, len(recs))
	for _, rec := range recs {
		answerName := rec.Name
		if strings.HasPrefix(rec.Name, "*.") {
			answerName = name
		}
		wireRec, ok := recordFromLocal(answerName, rec)
		if !ok {
			continue
		}
		answers = append(answers, wireRec)
	}
	if len(answers) == 0 {
		return dnswire.Response{}, false
	}
	return dnswire.Response{ID: q.ID, ResponseCode: dnswire.NoError, Answers: answers}, true
}

func recordFromLocal(answerName string, rec LocalRecord) (dnswire.Record, bool) {
	switch rec.Type {
	case dnswire.TypeA, dnswire.TypeAAAA:
		ip := net.ParseIP(rec.Value)
		if ip == nil {
			return dnswire.Record{}, false
		}
		if rec.Type == dnswire.TypeA {
			return dnswire.NewARecord(answerName, rec.TTL, ip)
		}
		return dnswire.NewAAAARecord(answerName, rec.TTL, ip)
	case dnswire.TypeCNAME, dnswire.TypeNS, dnswire.TypePTR:
		return dnswire.Record{Name: answerName, Type: uint16(rec.Type), Class: uint16(dnswire.ClassIN), TTL: rec.TTL, Data: rec.Value}, true
	case dnswire.TypeMX:
		return dnswire.Record{Name: answerName, Type: uint16(rec.Type), Class: uint16(dnswire.ClassIN), TTL: rec.TTL, Data: dnswire.MXData{Preference: rec.Priority, Exchange: rec.Value}}, true
	case dnswire.TypeTXT:
		return dnswire.Record{Name: answerName, Type: uint16(rec.Type), Class: uint16(dnswire.ClassIN), TTL: rec.TTL, Data: rec.Value}, true
	default:
		return dnswire.Record{}, false
	}
}

func (r *Resolver) resolveUpstream(ctx context.Context, q dnswire.Query) (dnswire.Response, Metadata, error) {
	if r.Dispatcher == nil {
		return dnswire.Response{}, Metadata{}, ErrNoHealthyUpstreams
	}

	wireReq, err := dnswire.EncodeQuery(q)
	if err != nil {
		return dnswire.Response{}, Metadata{}, fmt.Errorf("resolver: encode upstream query: %w", err)
	}

	outcome, err := r.Dispatcher.Query(ctx, wireReq)
	if err != nil {
		return dnswire.Response{}, Metadata{}, fmt.Errorf("%w: %v", ErrNoHealthyUpstreams, err)
	}

	resp, err := dnswire.DecodeResponse(outcome.Response)
	if err != nil {
		return dnswire.Response{}, Metadata{}, fmt.Errorf("resolver: decode upstream response: %w", err)
	}
	resp.ID = q.ID

	meta := Metadata{UpstreamUsed: outcome.Winner.Name}
	if r.Cache != nil && resp.ResponseCode == dnswire.NoError {
		name := dnswire.NormalizeName(q.Name)
		r.Cache.Set(cache.Key{Name: name, Type: q.Type}, resp)
	}
	return resp, meta, nil
}
