// Package rewrite implements the rewrite engine: an ordered
// set of compiled rules matching a domain to an action.
package rewrite

import (
	"net"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/fluxdns/fluxdns/internal/dnswire"
)

// MatchType is a rule's matching strategy.
type MatchType int

const (
	Exact MatchType = iota
	Wildcard
	Regex
)

// ActionKind is a rule's effect when it matches.
type ActionKind int

const (
	ActionBlock ActionKind = iota
	ActionMapToIP
	ActionMapToDomain
)

// Action is the effect a matching rule produces. Only the field relevant
// to Kind is populated.
type Action struct {
	Kind   ActionKind
	IP     net.IP
	Domain string
}

// Rule is a persisted rewrite rule.
type Rule struct {
	ID        int64
	Pattern   string
	MatchType MatchType
	Action    Action
	Priority  int32
	Enabled   bool

	compiled *regexp.Regexp // nil if MatchType != Regex, or pattern failed to compile
}

// Match is the result of a successful Check.
type Match struct {
	RuleID int64
	Action Action
}

// Engine holds the priority-ordered, reloadable rule list.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// New constructs an empty Engine.
func New() *Engine {
	return &Engine{}
}

// LoadRules replaces the in-memory rule list, compiling regex patterns
// and sorting by (priority desc, id asc) — : "sorted by
// (priority desc, id asc)", which also satisfies the insertion-order
// tie-break invariant (§8.6) since ids are assigned at insertion time.
func (e *Engine) LoadRules(rules []Rule) {
	loaded := make([]Rule, len(rules))
	for i, r := range rules {
		loaded[i] = compileRule(r)
	}
	sortRules(loaded)

	e.mu.Lock()
	e.rules = loaded
	e.mu.Unlock()
}

func compileRule(r Rule) Rule {
	if r.MatchType == Regex {
		if re, err := regexp.Compile(r.Pattern); err == nil {
			r.compiled = re
		} else {
			r.compiled = nil // inert: never matches, 
		}
	}
	return r
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}

// AddRule inserts (or replaces, by id) a rule and re-sorts.
func (e *Engine) AddRule(r Rule) {
	r = compileRule(r)
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.rules {
		if existing.ID == r.ID {
			e.rules[i] = r
			sortRules(e.rules)
			return
		}
	}
	e.rules = append(e.rules, r)
	sortRules(e.rules)
}

// RemoveRule deletes a rule by id.
func (e *Engine) RemoveRule(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.rules {
		if r.ID == id {
			e.rules = append(e.rules[:i:i], e.rules[i+1:]...)
			return
		}
	}
}

// Check evaluates domain against the priority-ordered rule list and
// returns the first match. Disabled rules never match.
func (e *Engine) Check(domain string) (Match, bool) {
	domain = dnswire.NormalizeName(domain)

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if ruleMatches(r, domain) {
			return Match{RuleID: r.ID, Action: r.Action}, true
		}
	}
	return Match{}, false
}

func ruleMatches(r Rule, domain string) bool {
	pattern := dnswire.NormalizeName(r.Pattern)
	switch r.MatchType {
	case Exact:
		return domain == pattern
	case Wildcard:
		base := strings.TrimPrefix(pattern, "*.")
		suffix := "." + base
		return strings.HasSuffix(domain, suffix) && len(domain) > len(suffix)
	case Regex:
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(domain)
	default:
		return false
	}
}

// Rules returns a snapshot of the current rule list, in match order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}
