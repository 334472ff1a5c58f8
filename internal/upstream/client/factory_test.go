package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsEachKnownProtocol(t *testing.T) {
	cases := []struct {
		proto       Protocol
		addr        string
		defaultPort int
	}{
		{ProtoUDP, "1.1.1.1:53", 53},
		{ProtoDoT, "1.1.1.1:853", 853},
		{ProtoDoH, "https://dns.example.test/dns-query", 443},
		{ProtoDoQ, "1.1.1.1:853", 853},
		{ProtoDoH3, "https://dns.example.test/dns-query", 443},
	}
	for _, tc := range cases {
		c, err := New(tc.proto, tc.addr, time.Second, tc.defaultPort)
		require.NoError(t, err)
		assert.NotEmpty(t, c.Describe())
	}
}

func TestNewAppliesDefaultPortWhenAddressOmitsOne(t *testing.T) {
	c, err := New(ProtoUDP, "1.1.1.1", time.Second, 53)
	require.NoError(t, err)
	udp, ok := c.(*UDPClient)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1:53", udp.addr)
}

func TestNewRejectsUnknownProtocol(t *testing.T) {
	_, err := New(Protocol("carrier-pigeon"), "x", time.Second, 53)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewAppliesDefaultTimeout(t *testing.T) {
	c, err := New(ProtoUDP, "1.1.1.1:53", 0, 53)
	require.NoError(t, err)
	udp, ok := c.(*UDPClient)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, udp.timeout)
}
