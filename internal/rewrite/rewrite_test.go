package rewrite

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchDoesNotMatchSubdomain(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: "example.com", MatchType: Exact, Action: Action{Kind: ActionBlock}, Priority: 10, Enabled: true}})

	m, ok := e.Check("example.com")
	require.True(t, ok)
	assert.Equal(t, int64(1), m.RuleID)

	_, ok = e.Check("x.example.com")
	assert.False(t, ok)
}

func TestWildcardMatchesStrictSubdomainsOnly(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: "*.example.test", MatchType: Wildcard, Action: Action{Kind: ActionBlock}, Priority: 10, Enabled: true}})

	_, ok := e.Check("abc.example.test")
	assert.True(t, ok)
	_, ok = e.Check("example.test")
	assert.False(t, ok)
}

func TestPriorityOrderingAndInsertionTieBreak(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{
		{ID: 2, Pattern: "x.test", MatchType: Exact, Action: Action{Kind: ActionBlock}, Priority: 5, Enabled: true},
		{ID: 1, Pattern: "x.test", MatchType: Exact, Action: Action{Kind: ActionMapToIP, IP: net.ParseIP("1.1.1.1")}, Priority: 5, Enabled: true},
	})
	m, ok := e.Check("x.test")
	require.True(t, ok)
	assert.Equal(t, int64(1), m.RuleID, "equal-priority ties break by insertion (ascending id) order")
}

func TestDisabledRuleNeverMatches(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: "blocked.test", MatchType: Exact, Action: Action{Kind: ActionBlock}, Priority: 10, Enabled: false}})
	_, ok := e.Check("blocked.test")
	assert.False(t, ok)
}

func TestUncompilableRegexIsInert(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: "(unclosed", MatchType: Regex, Action: Action{Kind: ActionBlock}, Priority: 10, Enabled: true}})
	_, ok := e.Check("(unclosed")
	assert.False(t, ok)
}

func TestRegexCaseInsensitiveOnLowercasedDomain(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: `^ads\..*\.test$`, MatchType: Regex, Action: Action{Kind: ActionBlock}, Priority: 10, Enabled: true}})
	_, ok := e.Check("Ads.Foo.Test")
	assert.True(t, ok)
}

func TestAddRuleResorts(t *testing.T) {
	e := New()
	e.LoadRules([]Rule{{ID: 1, Pattern: "x.test", MatchType: Exact, Action: Action{Kind: ActionBlock}, Priority: 1, Enabled: true}})
	e.AddRule(Rule{ID: 2, Pattern: "x.test", MatchType: Exact, Action: Action{Kind: ActionMapToIP}, Priority: 100, Enabled: true})
	m, ok := e.Check("x.test")
	require.True(t, ok)
	assert.Equal(t, int64(2), m.RuleID)
}
