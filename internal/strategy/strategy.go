// Package strategy implements the query dispatcher: given a
// set of candidate upstream servers and a wire-encoded query, it fans
// out to one or more of them per the configured mode, cancels the
// losers, and fails over on error.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/upstream"
	"github.com/fluxdns/fluxdns/internal/upstream/client"
)

// classifyResult decides whether a candidate's result is acceptable to
// return to the caller outright. A transport error is never
// acceptable. A transport success is acceptable only if its rcode is
// NoError or NXDomain; ServFail/Refused/NotImp/anything else is
// downgraded to an error so the caller treats it as a failed attempt
// and keeps racing or fails over.
func classifyResult(resp []byte, transportErr error) (accepted bool, effErr error) {
	if transportErr != nil {
		return false, transportErr
	}
	rcode, err := peekRCode(resp)
	if err != nil {
		return false, err
	}
	if rcode == dnswire.NoError || rcode == dnswire.NXDomain {
		return true, nil
	}
	return false, fmt.Errorf("strategy: upstream response code %s not acceptable", rcode)
}

func peekRCode(resp []byte) (dnswire.RCode, error) {
	off := 0
	h, err := dnswire.ParseHeader(resp, &off)
	if err != nil {
		return 0, err
	}
	return dnswire.RCodeFromFlags(h.Flags), nil
}

// allFailedErr wraps ErrAllFailed with the last candidate's error, if
// any, so callers can see why the final attempt was rejected.
func allFailedErr(lastErr error) error {
	if lastErr == nil {
		return ErrAllFailed
	}
	return fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// Mode selects the dispatch strategy.
type Mode int

const (
	Concurrent Mode = iota
	Fastest
	RoundRobin
	Random
)

// String renders a Mode the way it is persisted in system_config's
// query_strategy value.
func (m Mode) String() string {
	switch m {
	case Fastest:
		return "fastest"
	case RoundRobin:
		return "round_robin"
	case Random:
		return "random"
	default:
		return "concurrent"
	}
}

// ModeFromString parses a persisted query_strategy value, reporting
// false for anything unrecognized.
func ModeFromString(s string) (Mode, bool) {
	switch s {
	case "concurrent":
		return Concurrent, true
	case "fastest":
		return Fastest, true
	case "round_robin":
		return RoundRobin, true
	case "random":
		return Random, true
	default:
		return Concurrent, false
	}
}

// ErrNoServers is returned when the candidate set is empty.
var ErrNoServers = errors.New("strategy: no healthy upstream servers available")

// ErrAllFailed is returned when every attempted server failed.
var ErrAllFailed = errors.New("strategy: all upstream attempts failed")

// Dial builds a client.Client for a pool server. Exposed as a var so
// resolver tests can stub it out.
var Dial = func(s upstream.Server) (client.Client, error) {
	return client.New(protocolFor(s.Protocol), s.Address, s.Timeout, s.Protocol.DefaultPort())
}

func protocolFor(p upstream.Protocol) client.Protocol {
	switch p {
	case upstream.Dot:
		return client.ProtoDoT
	case upstream.Doh:
		return client.ProtoDoH
	case upstream.Doq:
		return client.ProtoDoQ
	case upstream.Doh3:
		return client.ProtoDoH3
	default:
		return client.ProtoUDP
	}
}

// Attempt records the outcome of one candidate server, for logging and
// for updating pool health via Dispatcher's caller.
type Attempt struct {
	Server   upstream.Server
	Err      error
	ElapsedMs uint64
}

// Outcome is the result of Dispatcher.Query.
type Outcome struct {
	TraceID  string
	Response []byte
	Winner   upstream.Server
	Attempts []Attempt
}

// Dispatcher runs one of the four strategies over a candidate pool.
type Dispatcher struct {
	Pool *upstream.Pool
	Mode Mode

	// rrCounter advances round-robin selection across calls.
	rrCounter uint64
}

// Query dispatches req (already wire-encoded) to the configured mode's
// candidate set and returns the first successful response. Each client
// applies its own server's timeout to an attempt.
func (d *Dispatcher) Query(ctx context.Context, req []byte) (Outcome, error) {
	traceID := uuid.NewString()
	candidates := d.Pool.GetHealthyServers()
	if len(candidates) == 0 {
		return Outcome{TraceID: traceID}, ErrNoServers
	}

	switch d.Mode {
	case Concurrent:
		return d.queryConcurrent(ctx, traceID, req, candidates)
	case Fastest:
		if d.anyColdStats(candidates) {
			// Not enough history to trust a fastest-first ordering yet;
			// fall back to Concurrent, which also seeds stats for next time.
			return d.queryConcurrent(ctx, traceID, req, candidates)
		}
		return d.queryOrdered(ctx, traceID, req, d.orderByFastest(candidates))
	case RoundRobin:
		return d.queryOrdered(ctx, traceID, req, d.orderByRoundRobin(candidates))
	case Random:
		return d.queryOrdered(ctx, traceID, req, d.orderByRandom(candidates))
	default:
		return d.queryOrdered(ctx, traceID, req, candidates)
	}
}

// fastestRecentWindow is how recently a candidate must have recorded a
// success for the Fastest strategy to trust the pool's history.
const fastestRecentWindow = 5 * time.Minute

// anyColdStats reports whether any candidate lacks a success recorded
// within fastestRecentWindow.
func (d *Dispatcher) anyColdStats(candidates []upstream.Server) bool {
	for _, s := range candidates {
		if !d.Pool.HasRecentSuccess(s.ID, fastestRecentWindow) {
			return true
		}
	}
	return false
}

// orderByFastest puts the pool's historically fastest server first,
// remaining candidates following in their original order.
func (d *Dispatcher) orderByFastest(candidates []upstream.Server) []upstream.Server {
	fastest, ok := d.Pool.GetFastestServer()
	if !ok {
		return candidates
	}
	ordered := make([]upstream.Server, 0, len(candidates))
	ordered = append(ordered, fastest)
	for _, s := range candidates {
		if s.ID != fastest.ID {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func (d *Dispatcher) orderByRoundRobin(candidates []upstream.Server) []upstream.Server {
	idx := d.rrCounter % uint64(len(candidates))
	d.rrCounter++
	ordered := make([]upstream.Server, 0, len(candidates))
	ordered = append(ordered, candidates[idx:]...)
	ordered = append(ordered, candidates[:idx]...)
	return ordered
}

func (d *Dispatcher) orderByRandom(candidates []upstream.Server) []upstream.Server {
	ordered := make([]upstream.Server, len(candidates))
	copy(ordered, candidates)
	rand.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })
	return ordered
}

// queryOrdered tries candidates in order, failing over to the next
// whenever a candidate either fails at the transport level or answers
// with a response code other than NoError/NXDomain, until one is
// accepted or the list is exhausted.
func (d *Dispatcher) queryOrdered(ctx context.Context, traceID string, req []byte, candidates []upstream.Server) (Outcome, error) {
	attempts := make([]Attempt, 0, len(candidates))
	var lastErr error
	for _, s := range candidates {
		resp, elapsedMs, err := queryOne(ctx, s, req)
		accepted, effErr := classifyResult(resp, err)
		attempts = append(attempts, Attempt{Server: s, Err: effErr, ElapsedMs: elapsedMs})
		if accepted {
			d.Pool.RecordSuccess(s.ID, elapsedMs)
			return Outcome{TraceID: traceID, Response: resp, Winner: s, Attempts: attempts}, nil
		}
		d.Pool.RecordFailure(s.ID)
		lastErr = effErr
	}
	return Outcome{TraceID: traceID, Attempts: attempts}, allFailedErr(lastErr)
}

// queryConcurrent fans out to every candidate simultaneously and
// accepts the first response whose rcode is NoError or NXDomain,
// cancelling the rest. A fast transport success carrying any other
// rcode (ServFail, Refused, NotImp, ...) is recorded as a failure and
// the race continues among the remaining candidates.
// concurrentResult carries one candidate's outcome back to the fan-in
// loop in queryConcurrent.
type concurrentResult struct {
	attempt Attempt
	resp    []byte
}

func (d *Dispatcher) queryConcurrent(ctx context.Context, traceID string, req []byte, candidates []upstream.Server) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan concurrentResult, len(candidates))

	for _, s := range candidates {
		s := s
		go func() {
			resp, elapsedMs, err := queryOne(ctx, s, req)
			resultCh <- concurrentResult{attempt: Attempt{Server: s, Err: err, ElapsedMs: elapsedMs}, resp: resp}
		}()
	}

	attempts := make([]Attempt, 0, len(candidates))
	var lastErr error
	for i := 0; i < len(candidates); i++ {
		r := <-resultCh
		accepted, effErr := classifyResult(r.resp, r.attempt.Err)
		r.attempt.Err = effErr
		attempts = append(attempts, r.attempt)
		if accepted {
			d.Pool.RecordSuccess(r.attempt.Server.ID, r.attempt.ElapsedMs)
			cancel() // stop the remaining in-flight attempts
			go drainRemaining(resultCh, len(candidates)-i-1)
			return Outcome{TraceID: traceID, Response: r.resp, Winner: r.attempt.Server, Attempts: attempts}, nil
		}
		d.Pool.RecordFailure(r.attempt.Server.ID)
		lastErr = effErr
	}
	return Outcome{TraceID: traceID, Attempts: attempts}, allFailedErr(lastErr)
}

// drainRemaining consumes pending goroutine sends so they don't leak
// after a winner has already been returned.
func drainRemaining(ch <-chan concurrentResult, n int) {
	for i := 0; i < n; i++ {
		<-ch
	}
}

func queryOne(ctx context.Context, s upstream.Server, req []byte) ([]byte, uint64, error) {
	c, err := Dial(s)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := c.Query(ctx, req)
	elapsedMs := uint64(time.Since(start).Milliseconds())
	if err != nil {
		return nil, elapsedMs, err
	}
	return resp, elapsedMs, nil
}
