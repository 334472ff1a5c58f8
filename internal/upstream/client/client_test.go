package client

import (
	"testing"
	"time"

	"github.com/quic-go/quic-go/http3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddressAppliesDefaultPort(t *testing.T) {
	assert.Equal(t, "1.1.1.1:53", normalizeAddress("1.1.1.1", 53))
}

func TestNormalizeAddressKeepsExplicitPort(t *testing.T) {
	assert.Equal(t, "1.1.1.1:5353", normalizeAddress("1.1.1.1:5353", 53))
}

func TestNormalizeAddressBracketsBareIPv6Literal(t *testing.T) {
	assert.Equal(t, "[2001:db8::1]:53", normalizeAddress("2001:db8::1", 53))
}

func TestNormalizeAddressAcceptsBracketedIPv6WithoutPort(t *testing.T) {
	assert.Equal(t, "[2001:db8::1]:853", normalizeAddress("[2001:db8::1]", 853))
}

func TestNormalizeAddressKeepsExplicitBracketedIPv6Port(t *testing.T) {
	assert.Equal(t, "[2001:db8::1]:8053", normalizeAddress("[2001:db8::1]:8053", 853))
}

func TestAddressHostStripsPortAndBrackets(t *testing.T) {
	assert.Equal(t, "2001:db8::1", addressHost("[2001:db8::1]:853"))
	assert.Equal(t, "1.1.1.1", addressHost("1.1.1.1:53"))
}

func TestBuildDoHURLAppliesDefaultPathAndPort(t *testing.T) {
	assert.Equal(t, "https://dns.google:443/dns-query", buildDoHURL("dns.google", 443))
}

func TestBuildDoHURLKeepsExplicitScheme(t *testing.T) {
	assert.Equal(t, "https://dns.example.test/dns-query", buildDoHURL("https://dns.example.test/dns-query", 443))
}

func TestNewUDPClientAppliesDefaultPort(t *testing.T) {
	c := NewUDPClient(Config{Address: "9.9.9.9", DefaultPort: 53})
	assert.Equal(t, "9.9.9.9:53", c.addr)
}

func TestNewDoTClientDerivesSNIFromNormalizedHost(t *testing.T) {
	c := NewDoTClient(Config{Address: "9.9.9.9", DefaultPort: 853})
	assert.Equal(t, "9.9.9.9:853", c.addr)
	assert.Equal(t, "9.9.9.9", c.serverName)
}

func TestNewDoQClientBypassesVerificationForIPLiteral(t *testing.T) {
	c := NewDoQClient(Config{Address: "9.9.9.9", DefaultPort: 853, Timeout: time.Second})
	require.Equal(t, "9.9.9.9", c.serverName)
	assert.True(t, c.tlsConfig().InsecureSkipVerify)
}

func TestNewDoQClientTrustsVerificationForHostname(t *testing.T) {
	c := NewDoQClient(Config{Address: "dns.example.test:853", Timeout: time.Second})
	assert.False(t, c.tlsConfig().InsecureSkipVerify)
}

func TestNewDoHClientResolvesBareHostToURL(t *testing.T) {
	c := NewDoHClient(Config{Address: "dns.google", DefaultPort: 443})
	assert.Equal(t, "https://dns.google:443/dns-query", c.url)
}

func TestNewDoh3ClientBypassesVerificationForIPLiteral(t *testing.T) {
	c := NewDoh3Client(Config{Address: "9.9.9.9", DefaultPort: 443})
	assert.Equal(t, "https://9.9.9.9:443/dns-query", c.url)
	transport, ok := c.http.Transport.(*http3.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}
